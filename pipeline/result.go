package pipeline

import (
	"github.com/tailored-agentic-units/fleetcare/agents"
	"github.com/tailored-agentic-units/fleetcare/ueba"
)

// Result is the composite outcome of one run. It is only returned when all
// six stages completed.
type Result struct {
	RunID         string                       `json:"run_id"`
	VehicleID     string                       `json:"vehicle_id"`
	Analysis      agents.AnalysisResult        `json:"analysis"`
	Diagnosis     agents.DiagnosisResult       `json:"diagnosis"`
	Schedule      agents.ScheduleResult        `json:"schedule"`
	VoiceScript   string                       `json:"voice_script"`
	FeedbackPlan  string                       `json:"feedback_plan"`
	Manufacturing agents.ManufacturingInsights `json:"manufacturing"`
	UEBA          UEBAReport                   `json:"ueba"`
}

// UEBAReport is the run's full access log and its anomalous subset.
type UEBAReport struct {
	Log       []ueba.Entry `json:"log"`
	Anomalies []ueba.Entry `json:"anomalies"`
}
