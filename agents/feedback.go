package agents

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/fleetcare/ueba"
)

// SurveyDelayHours is how long after service the survey goes out.
const SurveyDelayHours = 6

type FeedbackPlanner struct{}

func (FeedbackPlanner) Plan(ctx context.Context, rec Recorder, slot string) string {
	rec.Record(ctx, ueba.FeedbackAgent, ueba.Write, ueba.FeedbackDB, nil)
	return fmt.Sprintf(
		"SMS + in-app survey will be triggered %d hours after completion of service scheduled at **%s**.",
		SurveyDelayHours, slot,
	)
}
