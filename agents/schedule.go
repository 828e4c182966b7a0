package agents

import (
	"context"
	"time"

	"github.com/tailored-agentic-units/fleetcare/ueba"
)

type ScheduleResult struct {
	ProposedSlot string   `json:"proposed_slot"`
	City         string   `json:"city"`
	AllSlots     []string `json:"all_slots"`
}

// Slot is a candidate workshop appointment.
type Slot struct {
	Date  time.Time
	Label string
}

const (
	horizonDays = 7
	slotSep     = " – "
)

var slotTimes = []string{"09:30 AM", "01:30 PM", "05:30 PM"}

// SlotScheduler picks the earliest appointment that honours the SLA.
type SlotScheduler struct {
	Now Clock
}

// Slots enumerates three slots a day for the next seven days, in day then
// time order.
func (s SlotScheduler) Slots() []Slot {
	today := s.Now.Today()
	slots := make([]Slot, 0, horizonDays*len(slotTimes))
	for d := 1; d <= horizonDays; d++ {
		date := today.AddDate(0, 0, d)
		for _, at := range slotTimes {
			slots = append(slots, Slot{Date: date, Label: date.Format("02 Jan") + slotSep + at})
		}
	}
	return slots
}

func (s SlotScheduler) Schedule(ctx context.Context, rec Recorder, city string, diag DiagnosisResult) ScheduleResult {
	rec.Record(ctx, ueba.SchedulingAgent, ueba.Read, ueba.SchedulerAPI, nil)
	// Out-of-baseline read kept on purpose so every run exercises the detector.
	rec.Record(ctx, ueba.SchedulingAgent, ueba.Read, ueba.TelematicsStream,
		map[string]string{"reason": "suspicious cross-access for demo"})

	slots := s.Slots()
	deadline := s.Now.Today().AddDate(0, 0, diag.SLADays)

	eligible := make([]string, 0, len(slots))
	for _, slot := range slots {
		if !slot.Date.After(deadline) {
			eligible = append(eligible, slot.Label)
		}
	}

	proposed := slots[0].Label
	if len(eligible) > 0 {
		proposed = eligible[0]
	}

	return ScheduleResult{
		ProposedSlot: proposed,
		City:         city,
		AllSlots:     eligible,
	}
}
