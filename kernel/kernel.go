// Package kernel composes the fleetcare subsystems (pipeline, vehicle store,
// booking flow, assistant, anomaly publisher, HTTP API) from one Config.
//
// The kernel initializes from configuration via New, creating all subsystems
// internally. Functional options allow test overrides of any collaborator.
//
//	k, err := kernel.New(&cfg)
//	defer k.Close()
//	result, err := k.Orchestrator().Run(ctx, req)
package kernel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/fleetcare/agents"
	"github.com/tailored-agentic-units/fleetcare/assistant"
	"github.com/tailored-agentic-units/fleetcare/booking"
	"github.com/tailored-agentic-units/fleetcare/notify"
	"github.com/tailored-agentic-units/fleetcare/observability"
	"github.com/tailored-agentic-units/fleetcare/pipeline"
	"github.com/tailored-agentic-units/fleetcare/server"
	"github.com/tailored-agentic-units/fleetcare/session"
	"github.com/tailored-agentic-units/fleetcare/store"
	"github.com/tailored-agentic-units/fleetcare/voice"
)

const readHeaderTimeout = 10 * time.Second

// Option configures a Kernel before its subsystems are built.
type Option func(*Kernel)

// WithClock overrides time.Now for the pipeline, store, and booking flow.
func WithClock(now agents.Clock) Option {
	return func(k *Kernel) { k.now = now }
}

// WithNoise overrides the forecast noise source.
func WithNoise(n agents.NoiseSource) Option {
	return func(k *Kernel) { k.noise = n }
}

// WithCaller overrides how the booking flow reaches vehicle owners.
func WithCaller(c voice.Caller) Option {
	return func(k *Kernel) { k.caller = c }
}

// WithSpeaker speaks assistant replies.
func WithSpeaker(s voice.Speaker) Option {
	return func(k *Kernel) { k.speaker = s }
}

// WithRegistry registers and serves metrics on reg instead of the
// Prometheus default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(k *Kernel) {
		k.registerer = reg
		k.gatherer = reg
	}
}

// WithPublisher sends anomalies through conn instead of dialing
// Config.Notify.URL.
func WithPublisher(conn notify.MsgPublisher) Option {
	return func(k *Kernel) { k.conn = conn }
}

// WithObserver overrides the observer named by Config.Pipeline.Observer.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// Kernel holds the composed runtime.
type Kernel struct {
	cfg Config

	now        agents.Clock
	noise      agents.NoiseSource
	caller     voice.Caller
	speaker    voice.Speaker
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	conn       notify.MsgPublisher
	observer   observability.Observer

	nc           *nats.Conn
	db           *store.DB
	orchestrator *pipeline.Orchestrator
	booking      *booking.Service
	assistant    *assistant.Assistant
	sessions     *session.Manager
	server       *server.Server
}

// New creates a Kernel from configuration. The booking flow answers calls
// with "yes" unless WithCaller is given.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{
		cfg:        *cfg,
		caller:     voice.ScriptedCaller{Answer: "yes"},
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
		sessions:   session.NewManager(cfg.Session),
	}
	for _, opt := range opts {
		opt(k)
	}

	if k.observer == nil {
		observer, err := observability.GetObserver(cfg.Pipeline.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		k.observer = observer
	}

	var storeOpts []store.Option
	bookingOpts := []booking.Option{booking.WithObserver(k.observer)}
	pipelineOpts := []pipeline.Option{
		pipeline.WithObserver(k.observer),
		pipeline.WithMetrics(pipeline.NewMetrics(k.registerer)),
	}
	if k.now != nil {
		storeOpts = append(storeOpts, store.WithClock(k.now))
		bookingOpts = append(bookingOpts, booking.WithClock(k.now))
		pipelineOpts = append(pipelineOpts, pipeline.WithClock(k.now))
	}
	if k.noise != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithNoise(k.noise))
	}

	if k.conn == nil && cfg.Notify.URL != "" {
		nc, err := notify.Connect(&cfg.Notify)
		if err != nil {
			return nil, err
		}
		k.nc = nc
		k.conn = nc
	}
	if k.conn != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithAnomalySink(notify.NewPublisher(k.conn, cfg.Notify.Subject)))
	}

	orchestrator, err := pipeline.New(&cfg.Pipeline, pipelineOpts...)
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	k.orchestrator = orchestrator

	db, err := store.Open(&cfg.Store, storeOpts...)
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("failed to open vehicle store: %w", err)
	}
	k.db = db

	k.booking = booking.New(db, k.caller, bookingOpts...)

	assistantOpts := []assistant.Option{assistant.WithObserver(k.observer)}
	if k.speaker != nil {
		assistantOpts = append(assistantOpts, assistant.WithSpeaker(k.speaker))
	}
	k.assistant = assistant.New(orchestrator, k.booking, cfg.Routing, assistantOpts...)

	k.server = server.New(cfg.Server, orchestrator, k.booking, k.assistant,
		server.WithGatherer(k.gatherer),
		server.WithSessions(k.sessions),
	)

	return k, nil
}

func (k *Kernel) Config() Config { return k.cfg }

func (k *Kernel) Orchestrator() *pipeline.Orchestrator { return k.orchestrator }

func (k *Kernel) Store() *store.DB { return k.db }

func (k *Kernel) Booking() *booking.Service { return k.booking }

func (k *Kernel) Assistant() *assistant.Assistant { return k.assistant }

func (k *Kernel) Sessions() *session.Manager { return k.sessions }

// Handler is the HTTP API.
func (k *Kernel) Handler() http.Handler { return k.server.Handler() }

// Serve listens on Config.Server.Addr until ctx is cancelled.
func (k *Kernel) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", k.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", k.cfg.Server.Addr, err)
	}
	return k.ServeListener(ctx, ln)
}

// ServeListener serves the HTTP API on ln and shuts down gracefully, within
// Config.Server.ShutdownTimeout, once ctx is cancelled.
func (k *Kernel) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           k.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		k.emit(ctx, EventServeStart, map[string]any{"addr": ln.Addr().String()})
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		k.emit(shutdownCtx, EventServeStop, map[string]any{"addr": ln.Addr().String()})
		return err
	})
	return g.Wait()
}

// Close releases the NATS connection the kernel opened, if any.
func (k *Kernel) Close() {
	if k.nc != nil {
		k.nc.Close()
		k.nc = nil
	}
}

func (k *Kernel) emit(ctx context.Context, t observability.EventType, data map[string]any) {
	observability.Emit(ctx, k.observer, observability.Event{
		Type:   t,
		Level:  observability.LevelInfo,
		Source: "kernel.Kernel",
		Data:   data,
	})
}
