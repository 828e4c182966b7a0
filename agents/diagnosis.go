package agents

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/tailored-agentic-units/fleetcare/ueba"
)

type DiagnosisResult struct {
	SLADays         int       `json:"sla_days"`
	TargetDate      time.Time `json:"target_date"`
	EstimatedCost   int       `json:"estimated_cost"`
	PotentialSaving int       `json:"potential_saving"`
	Summary         string    `json:"summary"`
	Components      []string  `json:"components"`
}

// Diagnoser turns a risk analysis into a service deadline and cost estimate.
type Diagnoser struct {
	Now Clock
}

func (d Diagnoser) Diagnose(ctx context.Context, rec Recorder, a AnalysisResult) DiagnosisResult {
	rec.Record(ctx, ueba.DiagnosisAgent, ueba.Read, ueba.AnalysisResults, nil)

	sla := a.RiskBand.SLADays()
	target := d.Now.Today().AddDate(0, 0, sla)
	cost := EstimatedCost(a.RiskScore)

	return DiagnosisResult{
		SLADays:         sla,
		TargetDate:      target,
		EstimatedCost:   cost,
		PotentialSaving: PotentialSaving(cost),
		Summary: fmt.Sprintf(
			"Risk is **%s** with score %.2f. Recommended to visit within **%d days** (by %s).",
			a.RiskBand, a.RiskScore, sla, target.Format(dateLayout),
		),
		Components: slices.Clone(a.LikelyComponents),
	}
}

// EstimatedCost is 1500 + round(score·15000).
func EstimatedCost(score float64) int {
	return 1500 + int(math.Round(score*15000))
}

// PotentialSaving is round(0.35·cost).
func PotentialSaving(cost int) int {
	return int(math.Round(0.35 * float64(cost)))
}
