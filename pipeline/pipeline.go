// Package pipeline drives the six maintenance agents for one vehicle and
// assembles their composite result.
//
// Every Run owns a fresh access monitor; nothing mutable is shared between
// runs, so one Orchestrator serves concurrent callers.
//
//	o, err := pipeline.New(&cfg)
//	result, err := o.Run(ctx, req)
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tailored-agentic-units/fleetcare/agents"
	"github.com/tailored-agentic-units/fleetcare/observability"
	"github.com/tailored-agentic-units/fleetcare/orchestrate/config"
	"github.com/tailored-agentic-units/fleetcare/orchestrate/workflows"
	"github.com/tailored-agentic-units/fleetcare/telemetry"
	"github.com/tailored-agentic-units/fleetcare/ueba"
)

const tracerName = "github.com/tailored-agentic-units/fleetcare/pipeline"

// Option configures an Orchestrator after config-driven initialization.
type Option func(*Orchestrator)

// WithClock overrides time.Now for every stage and the access log.
func WithClock(now agents.Clock) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithNoise overrides the forecast noise source. Scan calls it from
// several goroutines at once.
func WithNoise(n agents.NoiseSource) Option {
	return func(o *Orchestrator) { o.noise = n }
}

// WithCorpus replaces the generated maintenance corpus.
func WithCorpus(records []telemetry.MaintenanceRecord) Option {
	return func(o *Orchestrator) { o.corpus = records }
}

// WithFleet replaces the demo fleet table.
func WithFleet(fleet []telemetry.Vehicle) Option {
	return func(o *Orchestrator) { o.fleet = fleet }
}

// WithBaseline overrides the configured permission baseline.
func WithBaseline(b ueba.Baseline) Option {
	return func(o *Orchestrator) { o.baseline = b }
}

// WithObserver overrides the configured observer.
func WithObserver(obs observability.Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracerProvider overrides the global OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) { o.tracer = tp.Tracer(tracerName) }
}

// WithAnomalySink forwards each run's anomalies to sink.
func WithAnomalySink(sink AnomalySink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// Orchestrator runs the maintenance pipeline.
type Orchestrator struct {
	chain    config.ChainConfig
	scan     config.ParallelConfig
	data     telemetry.Config
	baseline ueba.Baseline
	corpus   []telemetry.MaintenanceRecord
	fleet    []telemetry.Vehicle
	now      agents.Clock
	noise    agents.NoiseSource
	observer observability.Observer
	metrics  *Metrics
	tracer   trace.Tracer
	sink     AnomalySink
}

// New creates an Orchestrator from configuration. The maintenance corpus and
// fleet table are built once here and are read-only afterwards.
func New(cfg *Config, opts ...Option) (*Orchestrator, error) {
	baseline, err := cfg.baseline()
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline: %w", err)
	}

	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	o := &Orchestrator{
		chain:    cfg.Chain,
		scan:     cfg.Scan,
		data:     cfg.Telemetry,
		baseline: baseline,
		now:      time.Now,
		noise:    agents.GlobalNoise,
		observer: observer,
		tracer:   otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.fleet == nil {
		o.fleet = telemetry.BuildFleet(o.now().Year())
	}
	if o.corpus == nil {
		if err := o.data.Validate(); err != nil {
			return nil, err
		}
		o.corpus = telemetry.BuildMaintenanceLog(o.now(), o.data)
	}

	return o, nil
}

// Fleet returns a copy of the fleet table.
func (o *Orchestrator) Fleet() []telemetry.Vehicle {
	return append([]telemetry.Vehicle(nil), o.fleet...)
}

// Corpus returns the maintenance corpus. Callers must not modify it.
func (o *Orchestrator) Corpus() []telemetry.MaintenanceRecord {
	return o.corpus
}

// Stage is one agent step of a run.
type Stage struct {
	Name  string
	Agent string
	Run   func(ctx context.Context, r Result) Result
}

func (o *Orchestrator) stages(req telemetry.Request, rec agents.Recorder) []Stage {
	analyzer := agents.RiskAnalyzer{Now: o.now, Noise: o.noise, FleetSize: len(o.fleet)}
	diagnoser := agents.Diagnoser{Now: o.now}
	scheduler := agents.SlotScheduler{Now: o.now}

	return []Stage{
		{Name: "analyze", Agent: ueba.DataAnalysisAgent, Run: func(ctx context.Context, r Result) Result {
			r.Analysis = analyzer.Analyze(ctx, rec, req.Signals, o.corpus)
			return r
		}},
		{Name: "diagnose", Agent: ueba.DiagnosisAgent, Run: func(ctx context.Context, r Result) Result {
			r.Diagnosis = diagnoser.Diagnose(ctx, rec, r.Analysis)
			return r
		}},
		{Name: "schedule", Agent: ueba.SchedulingAgent, Run: func(ctx context.Context, r Result) Result {
			r.Schedule = scheduler.Schedule(ctx, rec, req.City, r.Diagnosis)
			return r
		}},
		{Name: "engage", Agent: ueba.CustomerEngagementAgent, Run: func(ctx context.Context, r Result) Result {
			r.VoiceScript = agents.EngagementScriptBuilder{}.Build(ctx, rec, req.OwnerName, req.Make, req.Model, r.Diagnosis, r.Schedule)
			return r
		}},
		{Name: "feedback", Agent: ueba.FeedbackAgent, Run: func(ctx context.Context, r Result) Result {
			r.FeedbackPlan = agents.FeedbackPlanner{}.Plan(ctx, rec, r.Schedule.ProposedSlot)
			return r
		}},
		{Name: "insights", Agent: ueba.ManufacturingInsightsAgent, Run: func(ctx context.Context, r Result) Result {
			r.Manufacturing = agents.FleetInsightsAggregator{}.Insights(ctx, rec, o.corpus)
			return r
		}},
	}
}

// Run executes the six stages in order for one vehicle. Stages never fail on
// a validated request; the only error is context cancellation, and no
// partial result is returned.
func (o *Orchestrator) Run(ctx context.Context, req telemetry.Request) (*Result, error) {
	runID := uuid.Must(uuid.NewV7()).String()

	ctx, span := o.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("fleetcare.run_id", runID),
		attribute.String("fleetcare.vehicle_id", req.VehicleID),
	))
	defer span.End()

	o.emit(ctx, EventRunStart, observability.LevelInfo, map[string]any{
		"run_id":     runID,
		"vehicle_id": req.VehicleID,
	})

	monitor := ueba.NewMonitor(o.baseline, ueba.WithClock(o.now), ueba.WithObserver(o.observer))

	processor := func(ctx context.Context, s Stage, r Result) (Result, error) {
		ctx, stageSpan := o.tracer.Start(ctx, "pipeline."+s.Name, trace.WithAttributes(
			attribute.String("fleetcare.agent", s.Agent),
		))
		defer stageSpan.End()

		start := time.Now()
		out := s.Run(ctx, r)
		o.metrics.observeStage(s.Name, time.Since(start))
		return out, nil
	}

	initial := Result{RunID: runID, VehicleID: req.VehicleID}
	chain, err := workflows.ProcessChain(ctx, o.chain, o.stages(req, monitor), initial, processor, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.observeFailure()
		o.emit(ctx, EventRunFailed, observability.LevelError, map[string]any{
			"run_id": runID,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("pipeline run %s: %w", runID, err)
	}

	result := chain.Final
	result.UEBA = UEBAReport{
		Log:       monitor.Log(),
		Anomalies: monitor.Anomalies(),
	}

	span.SetAttributes(
		attribute.String("fleetcare.risk_band", string(result.Analysis.RiskBand)),
		attribute.Int("fleetcare.anomalies", len(result.UEBA.Anomalies)),
	)
	o.metrics.observeRun(&result)
	o.publish(ctx, &result)

	o.emit(ctx, EventRunComplete, observability.LevelInfo, map[string]any{
		"run_id":     runID,
		"vehicle_id": req.VehicleID,
		"risk_score": result.Analysis.RiskScore,
		"risk_band":  string(result.Analysis.RiskBand),
		"anomalies":  len(result.UEBA.Anomalies),
	})

	return &result, nil
}

// Insights aggregates the maintenance corpus on its own, outside a vehicle
// run.
func (o *Orchestrator) Insights(ctx context.Context) agents.ManufacturingInsights {
	monitor := ueba.NewMonitor(o.baseline, ueba.WithClock(o.now), ueba.WithObserver(o.observer))
	return agents.FleetInsightsAggregator{}.Insights(ctx, monitor, o.corpus)
}

func (o *Orchestrator) publish(ctx context.Context, r *Result) {
	if o.sink == nil || len(r.UEBA.Anomalies) == 0 {
		return
	}
	if err := o.sink.PublishAnomalies(ctx, r.RunID, r.VehicleID, r.UEBA.Anomalies); err != nil {
		o.emit(ctx, EventSinkFailed, observability.LevelWarning, map[string]any{
			"run_id": r.RunID,
			"error":  err.Error(),
		})
	}
}

func (o *Orchestrator) emit(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	observability.Emit(ctx, o.observer, observability.Event{
		Type:   t,
		Level:  level,
		Source: "pipeline.Orchestrator",
		Data:   data,
	})
}
