package pipeline

import (
	"context"

	"github.com/tailored-agentic-units/fleetcare/ueba"
)

// AnomalySink receives the anomalies of a completed run. A sink error is
// reported as an event and never fails the run.
type AnomalySink interface {
	PublishAnomalies(ctx context.Context, runID, vehicleID string, anomalies []ueba.Entry) error
}

// SinkFunc adapts a function to AnomalySink.
type SinkFunc func(ctx context.Context, runID, vehicleID string, anomalies []ueba.Entry) error

func (f SinkFunc) PublishAnomalies(ctx context.Context, runID, vehicleID string, anomalies []ueba.Entry) error {
	return f(ctx, runID, vehicleID, anomalies)
}
