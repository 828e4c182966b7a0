package pipeline

import "github.com/tailored-agentic-units/fleetcare/observability"

const (
	EventRunStart    observability.EventType = "pipeline.run.start"
	EventRunComplete observability.EventType = "pipeline.run.complete"
	EventRunFailed   observability.EventType = "pipeline.run.failed"
	EventSinkFailed  observability.EventType = "pipeline.sink.failed"
	EventScan        observability.EventType = "pipeline.scan.complete"
)
