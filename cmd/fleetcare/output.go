package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tailored-agentic-units/fleetcare/pipeline"
	"github.com/tailored-agentic-units/fleetcare/telemetry"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, req telemetry.Request, r *pipeline.Result) {
	fmt.Fprintf(w, "Run %s  %s\n\n", r.RunID, req)

	fmt.Fprintf(w, "Risk:       %.2f (%s)\n", r.Analysis.RiskScore, r.Analysis.RiskBand)
	fmt.Fprintf(w, "Components: %s\n", strings.Join(r.Analysis.LikelyComponents, "; "))
	fmt.Fprintf(w, "SLA:        %d days (by %s)\n", r.Diagnosis.SLADays, r.Diagnosis.TargetDate.Format("02 Jan 2006"))
	fmt.Fprintf(w, "Cost:       ₹%s (saving ₹%s)\n",
		humanize.Comma(int64(r.Diagnosis.EstimatedCost)),
		humanize.Comma(int64(r.Diagnosis.PotentialSaving)))
	fmt.Fprintf(w, "Slot:       %s, %s\n\n", r.Schedule.ProposedSlot, r.Schedule.City)

	fmt.Fprintln(w, r.Diagnosis.Summary)
	fmt.Fprintf(w, "\nVoice script:\n%s\n", r.VoiceScript)
	fmt.Fprintf(w, "\nFeedback: %s\n", r.FeedbackPlan)

	fmt.Fprintf(w, "\nAccess log: %d entries, %d anomalous\n", len(r.UEBA.Log), len(r.UEBA.Anomalies))
	for _, a := range r.UEBA.Anomalies {
		fmt.Fprintf(w, "  ! %s %s %s\n", a.Agent, a.Action, a.Resource)
	}
}

func printScanRow(w io.Writer, r *pipeline.Result) {
	fmt.Fprintf(w, "%-5s %-9s %.2f  %-22s %d anomalies\n",
		r.VehicleID, r.Analysis.RiskBand, r.Analysis.RiskScore, r.Schedule.ProposedSlot, len(r.UEBA.Anomalies))
}
