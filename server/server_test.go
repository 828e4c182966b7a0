package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tailored-agentic-units/fleetcare/agents"
	"github.com/tailored-agentic-units/fleetcare/assistant"
	"github.com/tailored-agentic-units/fleetcare/booking"
	"github.com/tailored-agentic-units/fleetcare/orchestrate/config"
	"github.com/tailored-agentic-units/fleetcare/pipeline"
	"github.com/tailored-agentic-units/fleetcare/server"
	"github.com/tailored-agentic-units/fleetcare/store"
	"github.com/tailored-agentic-units/fleetcare/telemetry"
)

type fixedNoise int

func (n fixedNoise) IntN(int) int { return int(n) }

func fixedClock() time.Time {
	return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

type fakeBooker struct{}

func (fakeBooker) BookService(_ context.Context, vehicleID, issue, city string) (booking.Booking, error) {
	if vehicleID == "NOPE" {
		return booking.Booking{}, fmt.Errorf("%w: %s", store.ErrVehicleNotFound, vehicleID)
	}
	return booking.Booking{Status: booking.StatusBooked, Slot: "03 May 2026 – 10:00 AM", VehicleID: vehicleID, Issue: issue, City: city}, nil
}

func newServer(t *testing.T, cfg server.Config) (*httptest.Server, *prometheus.Registry) {
	t.Helper()

	pcfg := pipeline.DefaultConfig()
	pcfg.Chain.Observer = "noop"
	pcfg.Scan.Observer = "noop"
	pcfg.Observer = "noop"

	reg := prometheus.NewRegistry()
	o, err := pipeline.New(&pcfg,
		pipeline.WithClock(fixedClock),
		pipeline.WithNoise(fixedNoise(0)),
		pipeline.WithMetrics(pipeline.NewMetrics(reg)),
	)
	if err != nil {
		t.Fatal(err)
	}

	a := assistant.New(o, fakeBooker{}, config.ConditionalConfig{Observer: "noop"})
	srv := httptest.NewServer(server.New(cfg, o, fakeBooker{}, a, server.WithGatherer(reg)).Handler())
	t.Cleanup(srv.Close)
	return srv, reg
}

func call(t *testing.T, srv *httptest.Server, procedure, body string, out any) int {
	t.Helper()
	resp, err := http.Post(srv.URL+procedure, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decode %s response %q: %v", procedure, data, err)
		}
	}
	return resp.StatusCode
}

type connectErr struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func payloadJSON(t *testing.T, req telemetry.Request) string {
	t.Helper()
	data, err := json.Marshal(telemetry.PayloadFor(req))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestAnalyze(t *testing.T) {
	srv, reg := newServer(t, server.DefaultConfig())

	var result pipeline.Result
	status := call(t, srv, server.AnalyzeProcedure, payloadJSON(t, telemetry.DefaultRequest()), &result)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if result.VehicleID != "V001" || result.RunID == "" {
		t.Errorf("result ids = %q %q", result.VehicleID, result.RunID)
	}
	if len(result.Analysis.Forecast) != 30 {
		t.Errorf("forecast length = %d", len(result.Analysis.Forecast))
	}
	if len(result.UEBA.Anomalies) != 1 {
		t.Errorf("anomalies = %d, want 1", len(result.UEBA.Anomalies))
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "fleetcare_pipeline_runs_total" {
			found = true
		}
	}
	if !found {
		t.Error("runs counter not registered")
	}
}

func TestAnalyze_InvalidPayload(t *testing.T) {
	srv, _ := newServer(t, server.DefaultConfig())

	tests := []struct {
		name string
		body string
	}{
		{"missing fields", `{"make":"Tata"}`},
		{"wrong type", `{"make":"Tata","mileage":"lots"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e connectErr
			status := call(t, srv, server.AnalyzeProcedure, tt.body, &e)
			if status != http.StatusBadRequest || e.Code != "invalid_argument" {
				t.Errorf("status = %d code = %q", status, e.Code)
			}
		})
	}
}

func TestInsightsAndFleet(t *testing.T) {
	srv, _ := newServer(t, server.DefaultConfig())

	var insights agents.ManufacturingInsights
	if status := call(t, srv, server.InsightsProcedure, `{}`, &insights); status != http.StatusOK {
		t.Fatalf("Insights status = %d", status)
	}
	if len(insights.Bullets) == 0 || insights.Summary == "" {
		t.Errorf("insights = %+v", insights)
	}

	var fleet server.FleetResponse
	if status := call(t, srv, server.FleetProcedure, `{}`, &fleet); status != http.StatusOK {
		t.Fatalf("Fleet status = %d", status)
	}
	if len(fleet.Vehicles) != 20 || fleet.Vehicles[0].ID != "V001" {
		t.Errorf("fleet = %d vehicles", len(fleet.Vehicles))
	}
}

func TestBookService(t *testing.T) {
	srv, _ := newServer(t, server.DefaultConfig())

	var b booking.Booking
	status := call(t, srv, server.BookServiceProcedure, `{"vehicle_id":"MH-01-AB-1234","issue":"Brake Pad Wear","city":"Pune"}`, &b)
	if status != http.StatusOK || b.Status != booking.StatusBooked || b.City != "Pune" {
		t.Errorf("status = %d booking = %+v", status, b)
	}

	var e connectErr
	if status := call(t, srv, server.BookServiceProcedure, `{"vehicle_id":"NOPE"}`, &e); status != http.StatusNotFound || e.Code != "not_found" {
		t.Errorf("unknown vehicle: status = %d code = %q", status, e.Code)
	}
	if status := call(t, srv, server.BookServiceProcedure, `{}`, &e); status != http.StatusBadRequest {
		t.Errorf("empty vehicle: status = %d", status)
	}
}

func TestAssist_SessionContinuity(t *testing.T) {
	srv, _ := newServer(t, server.DefaultConfig())

	var first server.AssistResponse
	if status := call(t, srv, server.AssistProcedure, `{"text":"please analyze my car"}`, &first); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if first.SessionID == "" || first.Intent != assistant.IntentAnalyze.String() {
		t.Fatalf("first = %+v", first)
	}
	if !strings.HasPrefix(first.Reply.Text, "Analysis completed.") {
		t.Errorf("reply = %q", first.Reply.Text)
	}

	var second server.AssistResponse
	body := fmt.Sprintf(`{"session_id":%q,"text":"yes"}`, first.SessionID)
	call(t, srv, server.AssistProcedure, body, &second)
	if second.SessionID != first.SessionID {
		t.Errorf("session changed: %q -> %q", first.SessionID, second.SessionID)
	}
	if !strings.HasPrefix(second.Reply.Text, "Confirmed booking for") {
		t.Errorf("confirm reply = %q", second.Reply.Text)
	}
}

func TestRateLimit(t *testing.T) {
	srv, _ := newServer(t, server.Config{RateLimitNil: ptr(0.001), Burst: 1})

	if status := call(t, srv, server.FleetProcedure, `{}`, nil); status != http.StatusOK {
		t.Fatalf("first status = %d", status)
	}
	if status := call(t, srv, server.FleetProcedure, `{}`, nil); status != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", status)
	}

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz throttled: %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newServer(t, server.DefaultConfig())
	call(t, srv, server.AnalyzeProcedure, payloadJSON(t, telemetry.DefaultRequest()), nil)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "fleetcare_pipeline_runs_total") {
		t.Error("metrics output missing runs counter")
	}
}

func ptr[T any](v T) *T { return &v }

func TestRateLimit_ZeroDisables(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.Merge(&server.Config{RateLimitNil: ptr(0.0), Burst: 1})
	if cfg.RateLimit() != 0 {
		t.Fatalf("RateLimit() = %v, want 0 after explicit zero", cfg.RateLimit())
	}

	srv, _ := newServer(t, cfg)
	for i := range 5 {
		if status := call(t, srv, server.FleetProcedure, `{}`, nil); status != http.StatusOK {
			t.Fatalf("request %d status = %d", i, status)
		}
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.Merge(&server.Config{Addr: ":9090"})
	if cfg.Addr != ":9090" || cfg.RateLimit() != 20 || cfg.Burst != 40 {
		t.Errorf("cfg = %+v", cfg)
	}
}
