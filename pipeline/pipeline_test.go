package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tailored-agentic-units/fleetcare/agents"
	"github.com/tailored-agentic-units/fleetcare/observability"
	"github.com/tailored-agentic-units/fleetcare/pipeline"
	"github.com/tailored-agentic-units/fleetcare/telemetry"
	"github.com/tailored-agentic-units/fleetcare/ueba"
)

type captureObserver struct {
	mu     sync.Mutex
	events []observability.Event
}

func (o *captureObserver) OnEvent(_ context.Context, e observability.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *captureObserver) count(t observability.EventType) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type fixedNoise int

func (n fixedNoise) IntN(int) int { return int(n) }

func fixedClock() time.Time {
	return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func testConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Chain.Observer = "noop"
	cfg.Scan.Observer = "noop"
	cfg.Observer = "noop"
	return cfg
}

func newOrchestrator(t *testing.T, opts ...pipeline.Option) *pipeline.Orchestrator {
	t.Helper()
	cfg := testConfig()
	base := []pipeline.Option{pipeline.WithClock(fixedClock), pipeline.WithNoise(fixedNoise(2))}
	o, err := pipeline.New(&cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func healthyRequest() telemetry.Request {
	req := telemetry.DefaultRequest()
	req.OwnerName = "Ravi"
	req.Signals.Year = 2026
	return req
}

func TestRun_HealthyVehicle(t *testing.T) {
	o := newOrchestrator(t)

	result, err := o.Run(context.Background(), healthyRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	id, err := uuid.Parse(result.RunID)
	if err != nil || id.Version() != 7 {
		t.Errorf("RunID = %q, want UUIDv7", result.RunID)
	}
	if result.VehicleID != "V001" {
		t.Errorf("VehicleID = %q", result.VehicleID)
	}
	if result.Analysis.RiskBand != agents.BandLow || result.Diagnosis.SLADays != 30 {
		t.Errorf("band %s sla %d, want Low/30", result.Analysis.RiskBand, result.Diagnosis.SLADays)
	}
	if diff := cmp.Diff([]string{agents.ComponentRoutine}, result.Diagnosis.Components); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
	if result.Schedule.ProposedSlot != "02 May – 09:30 AM" || result.Schedule.City != "Mumbai" {
		t.Errorf("schedule = %+v", result.Schedule)
	}
	if !strings.HasPrefix(result.VoiceScript, "Hi Ravi,") {
		t.Errorf("voice script starts %q", result.VoiceScript[:20])
	}
	if !strings.Contains(result.FeedbackPlan, "**02 May – 09:30 AM**") {
		t.Errorf("FeedbackPlan = %q", result.FeedbackPlan)
	}
	if len(result.Manufacturing.Bullets) != 3 || result.Manufacturing.Summary == "" {
		t.Errorf("manufacturing = %+v", result.Manufacturing)
	}
	if len(result.Analysis.Forecast) != 30 {
		t.Errorf("forecast = %d days", len(result.Analysis.Forecast))
	}
}

func TestRun_AccessLog(t *testing.T) {
	o := newOrchestrator(t)

	result, err := o.Run(context.Background(), healthyRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var agentsSeen []string
	for _, e := range result.UEBA.Log {
		agentsSeen = append(agentsSeen, e.Agent+":"+e.Resource)
	}
	want := []string{
		"DataAnalysisAgent:telematics_stream",
		"DataAnalysisAgent:maintenance_db",
		"DiagnosisAgent:analysis_results",
		"SchedulingAgent:scheduler_api",
		"SchedulingAgent:telematics_stream",
		"CustomerEngagementAgent:customer_profile",
		"CustomerEngagementAgent:analysis_results",
		"FeedbackAgent:feedback_db",
		"ManufacturingInsightsAgent:maintenance_db",
		"ManufacturingInsightsAgent:rca_capa_db",
	}
	if diff := cmp.Diff(want, agentsSeen); diff != "" {
		t.Errorf("access log mismatch (-want +got):\n%s", diff)
	}

	if len(result.UEBA.Anomalies) != 1 {
		t.Fatalf("anomalies = %d, want 1", len(result.UEBA.Anomalies))
	}
	a := result.UEBA.Anomalies[0]
	if a.Agent != ueba.SchedulingAgent || a.Resource != ueba.TelematicsStream || !a.Anomaly {
		t.Errorf("anomaly = %+v", a)
	}
	if !a.Time.Equal(fixedClock()) {
		t.Errorf("anomaly time = %v", a.Time)
	}
}

func TestRun_CriticalVehicle(t *testing.T) {
	o := newOrchestrator(t)
	req := telemetry.DefaultRequest()
	req.Signals = telemetry.Signals{EngineTemp: 250, BrakeHealth: 20, BatteryHealth: 20, TyrePressure: 32, Mileage: 150000, Year: 2016}

	result, err := o.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Analysis.RiskBand != agents.BandCritical || result.Diagnosis.SLADays != 2 {
		t.Errorf("band %s sla %d, want Critical/2", result.Analysis.RiskBand, result.Diagnosis.SLADays)
	}
	if len(result.Schedule.AllSlots) != 6 {
		t.Errorf("eligible slots = %d, want 6", len(result.Schedule.AllSlots))
	}
	want := []string{agents.ComponentEngine, agents.ComponentBrakes, agents.ComponentBattery}
	if diff := cmp.Diff(want, result.Analysis.LikelyComponents); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_MonitorPerRun(t *testing.T) {
	o := newOrchestrator(t)

	first, err := o.Run(context.Background(), healthyRequest())
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.Run(context.Background(), healthyRequest())
	if err != nil {
		t.Fatal(err)
	}

	if len(first.UEBA.Log) != 10 || len(second.UEBA.Log) != 10 {
		t.Errorf("log sizes = %d and %d, want 10 each", len(first.UEBA.Log), len(second.UEBA.Log))
	}
	if first.RunID == second.RunID {
		t.Error("runs share a run id")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := &captureObserver{}
	o := newOrchestrator(t, pipeline.WithMetrics(pipeline.NewMetrics(reg)), pipeline.WithObserver(obs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.Run(ctx, healthyRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if result != nil {
		t.Error("partial result returned")
	}
	if got := counterValue(t, reg, "fleetcare_pipeline_failures_total"); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	if obs.count(pipeline.EventRunFailed) != 1 {
		t.Error("missing run failed event")
	}
}

func TestRun_SwappedBaseline(t *testing.T) {
	policy := ueba.DefaultPolicy()
	policy[ueba.SchedulingAgent] = append(policy[ueba.SchedulingAgent], ueba.TelematicsStream)
	o := newOrchestrator(t, pipeline.WithBaseline(ueba.NewBaseline(policy)))

	result, err := o.Run(context.Background(), healthyRequest())
	if err != nil {
		t.Fatal(err)
	}
	if n := len(result.UEBA.Anomalies); n != 0 {
		t.Errorf("anomalies = %d, want 0", n)
	}
}

func TestNew_BaselineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.yaml")
	if err := os.WriteFile(path, []byte("DataAnalysisAgent: [telematics_stream]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.BaselineFile = path
	o, err := pipeline.New(&cfg, pipeline.WithClock(fixedClock), pipeline.WithNoise(fixedNoise(2)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, err := o.Run(context.Background(), healthyRequest())
	if err != nil {
		t.Fatal(err)
	}
	if n := len(result.UEBA.Anomalies); n != 9 {
		t.Errorf("anomalies = %d, want 9 under the single-entry policy", n)
	}

	cfg.BaselineFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := pipeline.New(&cfg); err == nil {
		t.Error("New() error = nil, want baseline load failure")
	}
}

func TestNew_UnknownObserver(t *testing.T) {
	cfg := testConfig()
	cfg.Observer = "missing"
	if _, err := pipeline.New(&cfg); err == nil {
		t.Error("New() error = nil, want observer failure")
	}
}

func TestNew_InvalidTelemetryConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry = telemetry.Config{CorpusSize: 10, Seed: 1}

	if _, err := pipeline.New(&cfg); !errors.Is(err, telemetry.ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestNew_SuppliedCorpusSkipsGeneration(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry = telemetry.Config{CorpusSize: 10, Seed: 1}

	o, err := pipeline.New(&cfg, pipeline.WithCorpus([]telemetry.MaintenanceRecord{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(o.Corpus()) != 0 {
		t.Errorf("corpus = %d records", len(o.Corpus()))
	}
}

func TestRun_AnomalySink(t *testing.T) {
	var got []ueba.Entry
	var gotRun string
	sink := pipeline.SinkFunc(func(ctx context.Context, runID, vehicleID string, anomalies []ueba.Entry) error {
		gotRun = runID
		got = anomalies
		return nil
	})
	o := newOrchestrator(t, pipeline.WithAnomalySink(sink))

	result, err := o.Run(context.Background(), healthyRequest())
	if err != nil {
		t.Fatal(err)
	}
	if gotRun != result.RunID || len(got) != 1 {
		t.Errorf("sink got run %q with %d anomalies", gotRun, len(got))
	}
}

func TestRun_SinkFailureDoesNotFailRun(t *testing.T) {
	obs := &captureObserver{}
	sink := pipeline.SinkFunc(func(context.Context, string, string, []ueba.Entry) error {
		return errors.New("broker unavailable")
	})
	o := newOrchestrator(t, pipeline.WithAnomalySink(sink), pipeline.WithObserver(obs))

	if _, err := o.Run(context.Background(), healthyRequest()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if obs.count(pipeline.EventSinkFailed) != 1 {
		t.Error("missing sink failed event")
	}
	if obs.count(ueba.EventAnomaly) != 1 {
		t.Errorf("anomaly events = %d, want 1", obs.count(ueba.EventAnomaly))
	}
}

func TestRun_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	o := newOrchestrator(t, pipeline.WithTracerProvider(tp))

	if _, err := o.Run(context.Background(), healthyRequest()); err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	want := []string{
		"pipeline.analyze", "pipeline.diagnose", "pipeline.schedule",
		"pipeline.engage", "pipeline.feedback", "pipeline.insights", "pipeline.Run",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("spans mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := newOrchestrator(t, pipeline.WithMetrics(pipeline.NewMetrics(reg)))

	for range 2 {
		if _, err := o.Run(context.Background(), healthyRequest()); err != nil {
			t.Fatal(err)
		}
	}

	if got := counterValue(t, reg, "fleetcare_pipeline_runs_total"); got != 2 {
		t.Errorf("runs = %v, want 2", got)
	}
	if got := counterValue(t, reg, "fleetcare_ueba_anomalies_total"); got != 2 {
		t.Errorf("anomalies = %v, want 2", got)
	}
}

func TestScanFleet(t *testing.T) {
	o := newOrchestrator(t)

	result, err := o.ScanFleet(context.Background())
	if err != nil {
		t.Fatalf("ScanFleet() error = %v", err)
	}
	if len(result.Results) != 20 || len(result.Errors) != 0 {
		t.Fatalf("got %d results %d errors, want 20/0", len(result.Results), len(result.Errors))
	}
	for i, r := range result.Results {
		if want := o.Fleet()[i].ID; r.VehicleID != want {
			t.Errorf("result %d vehicle = %s, want %s", i, r.VehicleID, want)
		}
		if len(r.UEBA.Log) != 10 || len(r.UEBA.Anomalies) != 1 {
			t.Errorf("result %d has %d log entries, %d anomalies", i, len(r.UEBA.Log), len(r.UEBA.Anomalies))
		}
	}
}

func TestInsights(t *testing.T) {
	corpus := []telemetry.MaintenanceRecord{
		{Component: telemetry.Engine, Severity: 4, Cost: 12000, RCATag: "Low coolant / oil quality", CAPAAction: "Improved cooling routing; sensor calibration"},
	}
	o := newOrchestrator(t, pipeline.WithCorpus(corpus))

	got := o.Insights(context.Background())
	want := []string{"• **Engine** – Avg severity 4.0, avg cost ₹12,000 over 1 cases. Top RCA: _Low coolant / oil quality_. Suggested CAPA: _Improved cooling routing; sensor calibration_"}
	if diff := cmp.Diff(want, got.Bullets); diff != "" {
		t.Errorf("bullets mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	if cfg.Scan.FailFast() {
		t.Error("default scan should collect all failures")
	}

	cfg.Merge(&pipeline.Config{
		Observer:  "noop",
		Telemetry: telemetry.Config{CorpusSize: 50},
		Baseline:  ueba.Policy{"A": {"r"}},
	})

	if cfg.Observer != "noop" || cfg.Telemetry.CorpusSize != 50 || cfg.Telemetry.Seed != 42 || len(cfg.Baseline) != 1 {
		t.Errorf("merged config = %+v", cfg)
	}
	if cfg.Chain.Observer != "slog" {
		t.Errorf("Chain.Observer = %q, want slog", cfg.Chain.Observer)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
