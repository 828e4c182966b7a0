package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tailored-agentic-units/fleetcare/ueba"
)

const scriptTemplate = `
Hi %s, this is your virtual service advisor from Hero ✕ Mahindra.

I’ve just completed a health scan of your %s %s using the latest telematics
and service history.

• Current health status: %s
• Likely attention areas: %s
• Estimated service cost if ignored: around ₹%s
• You can save almost ₹%s by fixing this proactively.

I recommend a preventive service visit. I’ve reserved a priority slot for you on
%s at your nearest authorised workshop.

Shall I go ahead and confirm this booking for you now?
`

// EngagementScriptBuilder renders the owner call script.
type EngagementScriptBuilder struct{}

func (EngagementScriptBuilder) Build(ctx context.Context, rec Recorder, owner, vehicleMake, model string, diag DiagnosisResult, sched ScheduleResult) string {
	rec.Record(ctx, ueba.CustomerEngagementAgent, ueba.Read, ueba.CustomerProfile, nil)
	rec.Record(ctx, ueba.CustomerEngagementAgent, ueba.Read, ueba.AnalysisResults, nil)

	script := fmt.Sprintf(scriptTemplate,
		owner, vehicleMake, model,
		diag.Summary,
		strings.Join(diag.Components, ", "),
		humanize.Comma(int64(diag.EstimatedCost)),
		humanize.Comma(int64(diag.PotentialSaving)),
		sched.ProposedSlot,
	)
	return strings.TrimSpace(script)
}
