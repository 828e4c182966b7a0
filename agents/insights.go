package agents

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/tailored-agentic-units/fleetcare/telemetry"
	"github.com/tailored-agentic-units/fleetcare/ueba"
)

const insightsSummary = "These patterns are fed back to the manufacturing quality team every week. " +
	"Components with rising severity or cost automatically trigger a CAPA ticket and design review."

const topComponents = 3

type ManufacturingInsights struct {
	Bullets []string `json:"bullets"`
	Summary string   `json:"summary"`
}

// ComponentStats aggregates the corpus records of one component.
type ComponentStats struct {
	Component   telemetry.Component
	AvgSeverity float64
	AvgCost     float64
	Count       int
	TopRCA      string
	CAPA        string
}

// FleetInsightsAggregator ranks components by mean severity across the
// whole maintenance corpus.
type FleetInsightsAggregator struct{}

func (FleetInsightsAggregator) Insights(ctx context.Context, rec Recorder, corpus []telemetry.MaintenanceRecord) ManufacturingInsights {
	rec.Record(ctx, ueba.ManufacturingInsightsAgent, ueba.Read, ueba.MaintenanceDB, nil)
	rec.Record(ctx, ueba.ManufacturingInsightsAgent, ueba.Read, ueba.RCACAPADB, nil)

	stats := RankComponents(corpus)
	bullets := make([]string, 0, topComponents)
	for _, s := range stats[:min(topComponents, len(stats))] {
		bullets = append(bullets, fmt.Sprintf(
			"• **%s** – Avg severity %.1f, avg cost ₹%s over %d cases. Top RCA: _%s_. Suggested CAPA: _%s_",
			s.Component, s.AvgSeverity, humanize.Comma(int64(math.Round(s.AvgCost))), s.Count, s.TopRCA, s.CAPA,
		))
	}

	return ManufacturingInsights{Bullets: bullets, Summary: insightsSummary}
}

// RankComponents groups records by component in encounter order and sorts
// the groups by descending mean severity. Ties keep encounter order.
func RankComponents(corpus []telemetry.MaintenanceRecord) []ComponentStats {
	type group struct {
		severity, cost int
		records        []telemetry.MaintenanceRecord
	}

	var order []telemetry.Component
	groups := make(map[telemetry.Component]*group)
	for _, r := range corpus {
		g, ok := groups[r.Component]
		if !ok {
			g = &group{}
			groups[r.Component] = g
			order = append(order, r.Component)
		}
		g.severity += r.Severity
		g.cost += r.Cost
		g.records = append(g.records, r)
	}

	stats := make([]ComponentStats, len(order))
	for i, comp := range order {
		g := groups[comp]
		n := float64(len(g.records))
		stats[i] = ComponentStats{
			Component:   comp,
			AvgSeverity: float64(g.severity) / n,
			AvgCost:     float64(g.cost) / n,
			Count:       len(g.records),
			TopRCA:      modeRCA(g.records),
			CAPA:        g.records[0].CAPAAction,
		}
	}

	slices.SortStableFunc(stats, func(a, b ComponentStats) int {
		switch {
		case a.AvgSeverity > b.AvgSeverity:
			return -1
		case a.AvgSeverity < b.AvgSeverity:
			return 1
		default:
			return 0
		}
	})
	return stats
}

// modeRCA returns the most frequent tag; the first tag to reach the top
// count wins ties.
func modeRCA(records []telemetry.MaintenanceRecord) string {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		if counts[r.RCATag] == 0 {
			order = append(order, r.RCATag)
		}
		counts[r.RCATag]++
	}

	best := ""
	for _, tag := range order {
		if best == "" || counts[tag] > counts[best] {
			best = tag
		}
	}
	return best
}
