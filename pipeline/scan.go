package pipeline

import (
	"context"

	"github.com/tailored-agentic-units/fleetcare/observability"
	"github.com/tailored-agentic-units/fleetcare/orchestrate/workflows"
	"github.com/tailored-agentic-units/fleetcare/telemetry"
)

// ScanResult pairs results and failures of a multi-vehicle scan, both in
// request order.
type ScanResult = workflows.ParallelResult[telemetry.Request, *Result]

// Scan runs the pipeline for every request concurrently. Each run has its
// own access monitor.
func (o *Orchestrator) Scan(ctx context.Context, reqs []telemetry.Request) (ScanResult, error) {
	result, err := workflows.ProcessParallel(ctx, o.scan, reqs, o.Run, nil)

	o.emit(ctx, EventScan, observability.LevelInfo, map[string]any{
		"vehicles":  len(reqs),
		"completed": len(result.Results),
		"failed":    len(result.Errors),
	})
	return result, err
}

// ScanFleet scans every vehicle of the fleet table with synthetic signals.
func (o *Orchestrator) ScanFleet(ctx context.Context) (ScanResult, error) {
	reqs := telemetry.FleetRequests(o.fleet, o.now().Year(), o.data.Seed)
	return o.Scan(ctx, reqs)
}
