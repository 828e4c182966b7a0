package booking_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/fleetcare/booking"
	"github.com/tailored-agentic-units/fleetcare/store"
	"github.com/tailored-agentic-units/fleetcare/voice"
)

func fixedClock() time.Time {
	return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

type countingCaller struct {
	answer string
	calls  int
}

func (c *countingCaller) Call(context.Context, string, string) (string, error) {
	c.calls++
	return c.answer, nil
}

func openDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&store.Config{Path: filepath.Join(t.TempDir(), "vehicles.json")}, store.WithClock(fixedClock))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return db
}

func TestDiagnoseBrakeSensor(t *testing.T) {
	tests := map[float64]string{
		2.5:  booking.IssueBrakePadWear,
		2.99: booking.IssueBrakePadWear,
		3.0:  "",
		7:    "",
	}
	for mm, want := range tests {
		if got := booking.DiagnoseBrakeSensor(mm); got != want {
			t.Errorf("DiagnoseBrakeSensor(%v) = %q, want %q", mm, got, want)
		}
	}
}

func TestProcessBrakeEvent_Booked(t *testing.T) {
	db := openDB(t)
	svc := booking.New(db, voice.ScriptedCaller{Answer: "yes"}, booking.WithClock(fixedClock))

	flow, err := svc.ProcessBrakeEvent(context.Background(), "MH-01-AB-1234", 2.5, "Mumbai")
	if err != nil {
		t.Fatalf("ProcessBrakeEvent() error = %v", err)
	}

	want := booking.Flow{
		VehicleID:     "MH-01-AB-1234",
		Owner:         "Mr. Sharma",
		Issue:         booking.IssueBrakePadWear,
		OwnerResponse: "yes",
		Status:        booking.StatusBooked,
		Booking: &booking.Booking{
			Status:    booking.StatusBooked,
			Slot:      "03 May 2026 – 10:00 AM",
			VehicleID: "MH-01-AB-1234",
			Issue:     booking.IssueBrakePadWear,
			City:      "Mumbai",
		},
	}
	if diff := cmp.Diff(want, flow); diff != "" {
		t.Errorf("flow mismatch (-want +got):\n%s", diff)
	}

	v, err := db.GetVehicle(context.Background(), "MH-01-AB-1234")
	if err != nil {
		t.Fatal(err)
	}
	if v.Status != "Scheduled Service (03 May 2026 – 10:00 AM)" || len(v.History) != 1 {
		t.Errorf("stored vehicle = %+v", v)
	}
}

func TestProcessBrakeEvent_Declined(t *testing.T) {
	db := openDB(t)
	svc := booking.New(db, voice.ScriptedCaller{Answer: "no thanks"}, booking.WithClock(fixedClock))

	flow, err := svc.ProcessBrakeEvent(context.Background(), "DL-04-XY-9999", 1.2, "Delhi")
	if err != nil {
		t.Fatal(err)
	}
	if flow.Status != booking.StatusDeclined || flow.Booking != nil {
		t.Errorf("flow = %+v", flow)
	}
	if v, _ := db.GetVehicle(context.Background(), "DL-04-XY-9999"); len(v.History) != 0 {
		t.Errorf("declined flow wrote history: %+v", v.History)
	}
}

func TestProcessBrakeEvent_NoIssue(t *testing.T) {
	caller := &countingCaller{answer: "yes"}
	svc := booking.New(openDB(t), caller)

	flow, err := svc.ProcessBrakeEvent(context.Background(), "DL-04-XY-9999", 6, "Delhi")
	if err != nil {
		t.Fatal(err)
	}
	if flow.Status != booking.StatusNoIssue || caller.calls != 0 {
		t.Errorf("flow = %+v after %d calls", flow, caller.calls)
	}
}

func TestProcessBrakeEvent_UnknownVehicle(t *testing.T) {
	svc := booking.New(openDB(t), voice.ScriptedCaller{Answer: "yes"})

	_, err := svc.ProcessBrakeEvent(context.Background(), "XX-00", 1, "Pune")
	if !errors.Is(err, store.ErrVehicleNotFound) {
		t.Errorf("error = %v, want ErrVehicleNotFound", err)
	}
}

func TestBookService_UnknownVehicleCreatesRecord(t *testing.T) {
	db := openDB(t)
	svc := booking.New(db, voice.ScriptedCaller{}, booking.WithClock(fixedClock))

	b, err := svc.BookService(context.Background(), "V001", "Proactive service", "Mumbai")
	if err != nil {
		t.Fatal(err)
	}
	if b.Slot != "03 May 2026 – 10:00 AM" || b.Status != booking.StatusBooked {
		t.Errorf("booking = %+v", b)
	}

	v, err := db.GetVehicle(context.Background(), "V001")
	if err != nil || v.Owner != "Unknown" {
		t.Errorf("GetVehicle(V001) = %+v, %v", v, err)
	}
}
