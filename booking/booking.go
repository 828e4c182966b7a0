// Package booking is the simple brake-event flow: diagnose a brake sensor
// reading, call the owner, and book and record a service visit when they
// agree.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/fleetcare/observability"
	"github.com/tailored-agentic-units/fleetcare/store"
	"github.com/tailored-agentic-units/fleetcare/voice"
)

// Flow outcomes.
const (
	StatusNoIssue  = "no_issue"
	StatusBooked   = "booked"
	StatusDeclined = "declined"
)

const (
	IssueBrakePadWear = "Brake Pad Wear"

	// MinPadThicknessMM is the thinnest brake pad that needs no service.
	MinPadThicknessMM = 3.0

	slotLayout = "02 Jan 2006"
	slotTime   = " – 10:00 AM"
)

const EventBooked observability.EventType = "booking.booked"

// VehicleStore is the persistence the flow needs. *store.DB satisfies it.
type VehicleStore interface {
	GetVehicle(ctx context.Context, id string) (store.Vehicle, error)
	UpdateVehicleHistory(ctx context.Context, id, issue, action string) error
}

type Booking struct {
	Status    string `json:"status"`
	Slot      string `json:"slot"`
	VehicleID string `json:"vehicle_id"`
	Issue     string `json:"issue"`
	City      string `json:"city"`
}

// Flow reports what happened to one brake event.
type Flow struct {
	VehicleID     string   `json:"vehicle_id"`
	Owner         string   `json:"owner"`
	Issue         string   `json:"issue,omitempty"`
	OwnerResponse string   `json:"owner_response,omitempty"`
	Booking       *Booking `json:"booking,omitempty"`
	Status        string   `json:"status"`
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithObserver(o observability.Observer) Option {
	return func(s *Service) { s.observer = o }
}

type Service struct {
	store    VehicleStore
	caller   voice.Caller
	now      func() time.Time
	observer observability.Observer
}

func New(db VehicleStore, caller voice.Caller, opts ...Option) *Service {
	s := &Service{store: db, caller: caller, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DiagnoseBrakeSensor returns the issue for a pad thickness reading, or ""
// when the pads are fine.
func DiagnoseBrakeSensor(mm float64) string {
	if mm < MinPadThicknessMM {
		return IssueBrakePadWear
	}
	return ""
}

// BookService reserves the 10:00 AM slot two days from now and records it
// in the vehicle's history.
func (s *Service) BookService(ctx context.Context, vehicleID, issue, city string) (Booking, error) {
	slot := s.now().AddDate(0, 0, 2).Format(slotLayout) + slotTime
	if err := s.store.UpdateVehicleHistory(ctx, vehicleID, issue, fmt.Sprintf("Scheduled Service (%s)", slot)); err != nil {
		return Booking{}, fmt.Errorf("record booking for %s: %w", vehicleID, err)
	}

	observability.Emit(ctx, s.observer, observability.Event{
		Type:   EventBooked,
		Level:  observability.LevelInfo,
		Source: "booking.Service",
		Data:   map[string]any{"vehicle_id": vehicleID, "slot": slot, "issue": issue},
	})

	return Booking{Status: StatusBooked, Slot: slot, VehicleID: vehicleID, Issue: issue, City: city}, nil
}

// ProcessBrakeEvent runs the whole flow for one sensor reading. An unknown
// vehicle returns an error wrapping store.ErrVehicleNotFound.
func (s *Service) ProcessBrakeEvent(ctx context.Context, vehicleID string, padMM float64, city string) (Flow, error) {
	vehicle, err := s.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		return Flow{}, err
	}

	flow := Flow{
		VehicleID: vehicleID,
		Owner:     vehicle.Owner,
		Issue:     DiagnoseBrakeSensor(padMM),
	}
	if flow.Issue == "" {
		flow.Status = StatusNoIssue
		return flow, nil
	}

	owner := vehicle.Owner
	if owner == "" {
		owner = "Owner"
	}
	answer, err := s.caller.Call(ctx, owner, flow.Issue)
	if err != nil {
		return flow, fmt.Errorf("call owner of %s: %w", vehicleID, err)
	}
	flow.OwnerResponse = answer

	if !voice.Accepted(answer) {
		flow.Status = StatusDeclined
		return flow, nil
	}

	b, err := s.BookService(ctx, vehicleID, flow.Issue, city)
	if err != nil {
		return flow, err
	}
	flow.Booking = &b
	flow.Status = StatusBooked
	return flow, nil
}
