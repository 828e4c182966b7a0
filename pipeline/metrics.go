package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors for pipeline runs. A nil *Metrics
// records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	failures      prometheus.Counter
	anomalies     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	riskScore     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "fleetcare", Subsystem: "pipeline", Name: "runs_total", Help: "Completed pipeline runs by risk band."},
			[]string{"band"},
		),
		failures: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: "fleetcare", Subsystem: "pipeline", Name: "failures_total", Help: "Pipeline runs that failed."},
		),
		anomalies: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "fleetcare", Subsystem: "ueba", Name: "anomalies_total", Help: "Out-of-baseline resource accesses."},
			[]string{"agent", "resource"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: "fleetcare", Subsystem: "pipeline", Name: "stage_duration_seconds", Help: "Duration of each pipeline stage.", Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8)},
			[]string{"stage"},
		),
		riskScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{Namespace: "fleetcare", Subsystem: "pipeline", Name: "risk_score", Help: "Distribution of computed risk scores.", Buckets: prometheus.LinearBuckets(0, 0.125, 8)},
		),
	}
	reg.MustRegister(m.runs, m.failures, m.anomalies, m.stageDuration, m.riskScore)
	return m
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) observeRun(r *Result) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(r.Analysis.RiskBand)).Inc()
	m.riskScore.Observe(r.Analysis.RiskScore)
	for _, a := range r.UEBA.Anomalies {
		m.anomalies.WithLabelValues(a.Agent, a.Resource).Inc()
	}
}

func (m *Metrics) observeFailure() {
	if m == nil {
		return
	}
	m.failures.Inc()
}
