// Package session holds per-user dashboard state: headline counters,
// bookings, assistant chat history, and the last analysis. The pipeline
// never sees it.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/fleetcare/booking"
	"github.com/tailored-agentic-units/fleetcare/pipeline"
	"github.com/tailored-agentic-units/fleetcare/telemetry"
)

// Role identifies the sender of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// Counters are the dashboard headline numbers.
type Counters struct {
	TotalAnalyses    int `json:"total_analyses"`
	IssuesDetected   int `json:"issues_detected"`
	PotentialSavings int `json:"potential_savings"`
	AvgHealth        int `json:"avg_health"`
}

// StartingCounters are the figures a new dashboard shows.
func StartingCounters() Counters {
	return Counters{
		TotalAnalyses:    156,
		IssuesDetected:   24,
		PotentialSavings: 125000,
		AvgHealth:        87,
	}
}

// Dashboard is one user's state. Safe for concurrent use.
type Dashboard struct {
	id          string
	now         func() time.Time
	counters    Counters
	bookings    []booking.Booking
	messages    []Message
	lastRequest *telemetry.Request
	lastResult  *pipeline.Result
	mu          sync.RWMutex
}

// NewDashboard creates a dashboard with a UUIDv7 identifier.
func NewDashboard() *Dashboard {
	return &Dashboard{
		id:       uuid.Must(uuid.NewV7()).String(),
		now:      time.Now,
		counters: StartingCounters(),
	}
}

func (d *Dashboard) ID() string {
	return d.id
}

func (d *Dashboard) Counters() Counters {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.counters
}

// RecordAnalysis counts a completed run and remembers it as the latest.
func (d *Dashboard) RecordAnalysis(req telemetry.Request, result *pipeline.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.counters.TotalAnalyses++
	d.counters.IssuesDetected++
	d.counters.PotentialSavings += result.Diagnosis.PotentialSaving
	d.lastRequest = &req
	d.lastResult = result
}

// LastRequest returns the most recent analysed request.
func (d *Dashboard) LastRequest() (telemetry.Request, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.lastRequest == nil {
		return telemetry.Request{}, false
	}
	return *d.lastRequest, true
}

// LastResult returns the most recent run, or nil.
func (d *Dashboard) LastResult() *pipeline.Result {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastResult
}

func (d *Dashboard) AddBooking(b booking.Booking) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bookings = append(d.bookings, b)
}

func (d *Dashboard) Bookings() []booking.Booking {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.bookings)
}

// AddMessage appends to the chat history.
func (d *Dashboard) AddMessage(role Role, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, Message{Role: role, Content: content, Time: d.now()})
}

// Recent returns up to the last n messages, oldest first.
func (d *Dashboard) Recent(n int) []Message {
	d.mu.RLock()
	defer d.mu.RUnlock()
	start := max(0, len(d.messages)-n)
	return slices.Clone(d.messages[start:])
}

// Clear resets the chat history.
func (d *Dashboard) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = nil
}
