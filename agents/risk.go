package agents

import (
	"context"
	"math"
	"time"

	"github.com/tailored-agentic-units/fleetcare/telemetry"
	"github.com/tailored-agentic-units/fleetcare/ueba"
)

// Band is the discrete severity class of a risk score.
type Band string

const (
	BandLow      Band = "Low"
	BandModerate Band = "Moderate"
	BandHigh     Band = "High"
	BandCritical Band = "Critical"
)

// BandFor partitions [0,1] at 0.25, 0.5 and 0.75; each threshold belongs to
// the band above it.
func BandFor(score float64) Band {
	switch {
	case score < 0.25:
		return BandLow
	case score < 0.5:
		return BandModerate
	case score < 0.75:
		return BandHigh
	default:
		return BandCritical
	}
}

// SLADays is the maximum recommended wait before service.
func (b Band) SLADays() int {
	switch b {
	case BandLow:
		return 30
	case BandModerate:
		return 15
	case BandHigh:
		return 7
	default:
		return 2
	}
}

// Likely component descriptions, in the order they are tested.
const (
	ComponentEngine  = "Engine cooling / oil circuit"
	ComponentBrakes  = "Brake pads & brake fluid"
	ComponentBattery = "Battery & charging system"
	ComponentTyres   = "Tyre pressure & wheel alignment"
	ComponentRoutine = "Routine check only – no acute risk"
)

// Factors are the non-negative inputs of the risk score.
type Factors struct {
	Age     float64 `json:"age"`
	Mileage float64 `json:"mileage"`
	Engine  float64 `json:"engine"`
	Brake   float64 `json:"brake"`
	Battery float64 `json:"battery"`
	Tyre    float64 `json:"tyre"`
}

// ComputeFactors derives the six factors for signals in currentYear.
func ComputeFactors(s telemetry.Signals, currentYear int) Factors {
	return Factors{
		Age:     float64(max(0, currentYear-s.Year)) / 10,
		Mileage: math.Min(1, s.Mileage/150000),
		Engine:  math.Max(0, (s.EngineTemp-195)/60),
		Brake:   math.Max(0, (60-s.BrakeHealth)/40),
		Battery: math.Max(0, (55-s.BatteryHealth)/40),
		Tyre:    math.Max(0, math.Abs(32-s.TyrePressure)/12),
	}
}

// Score is the weighted factor sum clamped to [0,1].
func (f Factors) Score() float64 {
	raw := 0.20*f.Age +
		0.25*f.Mileage +
		0.20*f.Engine +
		0.15*f.Brake +
		0.10*f.Battery +
		0.10*f.Tyre
	return math.Max(0, math.Min(1, raw))
}

// Components lists the likely failing components for these factors.
func (f Factors) Components() []string {
	var out []string
	if f.Engine > 0.3 {
		out = append(out, ComponentEngine)
	}
	if f.Brake > 0.25 {
		out = append(out, ComponentBrakes)
	}
	if f.Battery > 0.2 {
		out = append(out, ComponentBattery)
	}
	if f.Tyre > 0.3 {
		out = append(out, ComponentTyres)
	}
	if len(out) == 0 {
		out = append(out, ComponentRoutine)
	}
	return out
}

// ForecastDay is the expected workshop load for one calendar day.
type ForecastDay struct {
	Date         time.Time `json:"date"`
	ExpectedJobs int       `json:"expected_jobs"`
}

type AnalysisResult struct {
	RiskScore        float64       `json:"risk_score"`
	RiskBand         Band          `json:"risk_band"`
	LikelyComponents []string      `json:"likely_components"`
	Forecast         []ForecastDay `json:"forecast"`
	Factors          Factors       `json:"factors"`
}

const forecastDays = 30

// RiskAnalyzer scores a vehicle and forecasts workshop demand.
type RiskAnalyzer struct {
	Now       Clock
	Noise     NoiseSource
	FleetSize int
}

func (a RiskAnalyzer) Analyze(ctx context.Context, rec Recorder, s telemetry.Signals, corpus []telemetry.MaintenanceRecord) AnalysisResult {
	rec.Record(ctx, ueba.DataAnalysisAgent, ueba.Read, ueba.TelematicsStream, nil)
	rec.Record(ctx, ueba.DataAnalysisAgent, ueba.Read, ueba.MaintenanceDB, nil)

	f := ComputeFactors(s, a.Now().Year())
	score := f.Score()

	return AnalysisResult{
		RiskScore:        score,
		RiskBand:         BandFor(score),
		LikelyComponents: f.Components(),
		Forecast:         a.forecast(),
		Factors:          f,
	}
}

// forecast spans 30 consecutive days from today. Each day is
// max(1, round(baseline + 4·sin(day/6) + noise)) with noise in [-2, 3].
func (a RiskAnalyzer) forecast() []ForecastDay {
	today := a.Now.Today()
	baseline := float64(int(float64(a.FleetSize) * 0.4))

	days := make([]ForecastDay, forecastDays)
	for d := range days {
		noise := a.Noise.IntN(6) - 2
		value := baseline + 4*math.Sin(float64(d)/6) + float64(noise)
		days[d] = ForecastDay{
			Date:         today.AddDate(0, 0, d),
			ExpectedJobs: max(1, int(math.Round(value))),
		}
	}
	return days
}
