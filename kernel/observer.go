package kernel

import "github.com/tailored-agentic-units/fleetcare/observability"

// Kernel event types emitted around the HTTP server lifecycle.
const (
	EventServeStart observability.EventType = "kernel.serve.start"
	EventServeStop  observability.EventType = "kernel.serve.stop"
)
