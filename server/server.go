// Package server exposes the maintenance pipeline as Connect unary
// procedures over HTTP with JSON bodies.
//
//	POST /fleetcare.v1.MaintenanceService/Analyze
//	POST /fleetcare.v1.MaintenanceService/Insights
//	POST /fleetcare.v1.MaintenanceService/Fleet
//	POST /fleetcare.v1.MaintenanceService/BookService
//	POST /fleetcare.v1.MaintenanceService/Assist
//
// The mux also serves /metrics and /healthz.
package server

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/tailored-agentic-units/fleetcare/agents"
	"github.com/tailored-agentic-units/fleetcare/assistant"
	"github.com/tailored-agentic-units/fleetcare/booking"
	"github.com/tailored-agentic-units/fleetcare/pipeline"
	"github.com/tailored-agentic-units/fleetcare/session"
	"github.com/tailored-agentic-units/fleetcare/store"
	"github.com/tailored-agentic-units/fleetcare/telemetry"
)

const ServiceName = "fleetcare.v1.MaintenanceService"

const (
	AnalyzeProcedure     = "/" + ServiceName + "/Analyze"
	InsightsProcedure    = "/" + ServiceName + "/Insights"
	FleetProcedure       = "/" + ServiceName + "/Fleet"
	BookServiceProcedure = "/" + ServiceName + "/BookService"
	AssistProcedure      = "/" + ServiceName + "/Assist"
)

// Maintenance is the pipeline surface the API serves.
// *pipeline.Orchestrator satisfies it.
type Maintenance interface {
	Run(ctx context.Context, req telemetry.Request) (*pipeline.Result, error)
	Insights(ctx context.Context) agents.ManufacturingInsights
	Fleet() []telemetry.Vehicle
}

// Assistant answers chat text. *assistant.Assistant satisfies it.
type Assistant interface {
	Handle(ctx context.Context, d *session.Dashboard, text string) (assistant.Reply, error)
}

type FleetResponse struct {
	Vehicles []telemetry.Vehicle `json:"vehicles"`
}

type BookRequest struct {
	VehicleID string `json:"vehicle_id"`
	Issue     string `json:"issue"`
	City      string `json:"city"`
}

type AssistRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
}

type AssistResponse struct {
	SessionID string          `json:"session_id"`
	Intent    string          `json:"intent"`
	Reply     assistant.Reply `json:"reply"`
}

type Option func(*Server)

// WithGatherer serves metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithSessions shares a session manager with other front ends.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) { s.sessions = m }
}

type Server struct {
	cfg         Config
	maintenance Maintenance
	booker      assistant.Booker
	assistant   Assistant
	sessions    *session.Manager
	gatherer    prometheus.Gatherer
}

func New(cfg Config, m Maintenance, b assistant.Booker, a Assistant, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg,
		maintenance: m,
		booker:      b,
		assistant:   a,
		sessions:    session.NewManager(session.DefaultConfig()),
		gatherer:    prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the full HTTP surface: procedures behind tracing and rate
// limiting, plus unthrottled metrics and health endpoints.
func (s *Server) Handler() http.Handler {
	codec := connect.WithCodec(jsonCodec{})

	api := http.NewServeMux()
	api.Handle(AnalyzeProcedure, connect.NewUnaryHandler(AnalyzeProcedure, s.analyze, codec))
	api.Handle(InsightsProcedure, connect.NewUnaryHandler(InsightsProcedure, s.insights, codec))
	api.Handle(FleetProcedure, connect.NewUnaryHandler(FleetProcedure, s.fleet, codec))
	api.Handle(BookServiceProcedure, connect.NewUnaryHandler(BookServiceProcedure, s.bookService, codec))
	api.Handle(AssistProcedure, connect.NewUnaryHandler(AssistProcedure, s.assist, codec))

	var limiter *rate.Limiter
	if limit := s.cfg.RateLimit(); limit > 0 {
		limiter = rate.NewLimiter(rate.Limit(limit), max(s.cfg.Burst, 1))
	}

	mux := http.NewServeMux()
	mux.Handle("/"+ServiceName+"/", Chain(api, Trace(ServiceName), RateLimit(limiter)))
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) analyze(ctx context.Context, req *connect.Request[telemetry.Payload]) (*connect.Response[pipeline.Result], error) {
	r, err := req.Msg.Request()
	if err != nil {
		return nil, connectError(err)
	}
	result, err := s.maintenance.Run(ctx, r)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(result), nil
}

func (s *Server) insights(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[agents.ManufacturingInsights], error) {
	insights := s.maintenance.Insights(ctx)
	return connect.NewResponse(&insights), nil
}

func (s *Server) fleet(_ context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[FleetResponse], error) {
	return connect.NewResponse(&FleetResponse{Vehicles: s.maintenance.Fleet()}), nil
}

func (s *Server) bookService(ctx context.Context, req *connect.Request[BookRequest]) (*connect.Response[booking.Booking], error) {
	if req.Msg.VehicleID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("vehicle_id is required"))
	}
	b, err := s.booker.BookService(ctx, req.Msg.VehicleID, req.Msg.Issue, req.Msg.City)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&b), nil
}

func (s *Server) assist(ctx context.Context, req *connect.Request[AssistRequest]) (*connect.Response[AssistResponse], error) {
	d := s.sessions.Get(req.Msg.SessionID)
	reply, err := s.assistant.Handle(ctx, d, req.Msg.Text)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&AssistResponse{
		SessionID: d.ID(),
		Intent:    reply.Intent.String(),
		Reply:     reply,
	}), nil
}

func connectError(err error) error {
	switch {
	case errors.Is(err, telemetry.ErrMissingField), errors.Is(err, telemetry.ErrInvalidField):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, store.ErrVehicleNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
