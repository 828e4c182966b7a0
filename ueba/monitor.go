package ueba

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/tailored-agentic-units/fleetcare/observability"
)

// Action is the kind of access recorded.
type Action string

const (
	Read  Action = "read"
	Write Action = "write"
)

// EventAnomaly is emitted for every out-of-baseline access.
const EventAnomaly observability.EventType = "ueba.anomaly"

// Entry is one recorded access. Anomaly is decided when the entry is written
// and never revised.
type Entry struct {
	Time     time.Time         `json:"time"`
	Agent    string            `json:"agent"`
	Action   Action            `json:"action"`
	Resource string            `json:"resource"`
	Anomaly  bool              `json:"anomaly"`
	Meta     map[string]string `json:"meta"`
}

// Monitor is an append-only access log for a single pipeline run. It is not
// safe for concurrent use; each run owns its own Monitor.
type Monitor struct {
	baseline Baseline
	now      func() time.Time
	observer observability.Observer
	log      []Entry
}

type Option func(*Monitor)

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithObserver receives an EventAnomaly per anomalous access.
func WithObserver(o observability.Observer) Option {
	return func(m *Monitor) { m.observer = o }
}

func NewMonitor(baseline Baseline, opts ...Option) *Monitor {
	m := &Monitor{
		baseline: baseline,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record appends an access to the log. meta may be nil.
func (m *Monitor) Record(ctx context.Context, agent string, action Action, resource string, meta map[string]string) {
	entry := Entry{
		Time:     m.now(),
		Agent:    agent,
		Action:   action,
		Resource: resource,
		Anomaly:  !m.baseline.Allows(agent, resource),
		Meta:     maps.Clone(meta),
	}
	if entry.Meta == nil {
		entry.Meta = map[string]string{}
	}
	m.log = append(m.log, entry)

	if entry.Anomaly {
		data := map[string]any{
			"agent":    agent,
			"action":   string(action),
			"resource": resource,
		}
		for k, v := range meta {
			data["meta."+k] = v
		}
		observability.Emit(ctx, m.observer, observability.Event{
			Type:      EventAnomaly,
			Level:     observability.LevelWarning,
			Timestamp: entry.Time,
			Source:    "ueba.Monitor",
			Data:      data,
		})
	}
}

// Log returns a copy of every entry in record order.
func (m *Monitor) Log() []Entry {
	return cloneEntries(m.log)
}

// Anomalies returns the anomalous entries in record order.
func (m *Monitor) Anomalies() []Entry {
	return cloneEntries(slices.DeleteFunc(slices.Clone(m.log), func(e Entry) bool {
		return !e.Anomaly
	}))
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e
		out[i].Meta = maps.Clone(e.Meta)
	}
	return out
}
