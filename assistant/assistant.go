// Package assistant answers dashboard chat and voice requests. Text is
// classified into an Intent by a pluggable Classifier and routed to one
// handler; the pipeline itself knows nothing about intents.
package assistant

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/fleetcare/booking"
	"github.com/tailored-agentic-units/fleetcare/observability"
	"github.com/tailored-agentic-units/fleetcare/orchestrate/config"
	"github.com/tailored-agentic-units/fleetcare/orchestrate/workflows"
	"github.com/tailored-agentic-units/fleetcare/pipeline"
	"github.com/tailored-agentic-units/fleetcare/session"
	"github.com/tailored-agentic-units/fleetcare/telemetry"
	"github.com/tailored-agentic-units/fleetcare/voice"
)

const (
	HelpReply      = "Demo assistant supports: 'analyze vehicle' and 'book slot'. Try one of those."
	NoAnalysisText = "I don't have an active analysis to confirm. Ask me to 'analyze vehicle' first."

	bookingIssue = "Proactive service"
	bookingCity  = "Mumbai"
)

const EventSpeakFailed observability.EventType = "assistant.speak.failed"

// Runner runs the maintenance pipeline. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, req telemetry.Request) (*pipeline.Result, error)
}

// Booker books a service visit. *booking.Service satisfies it.
type Booker interface {
	BookService(ctx context.Context, vehicleID, issue, city string) (booking.Booking, error)
}

// Reply is the assistant's answer to one utterance.
type Reply struct {
	Intent  Intent           `json:"-"`
	Text    string           `json:"text"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Booking *booking.Booking `json:"booking,omitempty"`
}

type Option func(*Assistant)

// WithClassifier replaces the keyword classifier.
func WithClassifier(c Classifier) Option {
	return func(a *Assistant) { a.classifier = c }
}

// WithSpeaker speaks every reply.
func WithSpeaker(s voice.Speaker) Option {
	return func(a *Assistant) { a.speaker = s }
}

func WithObserver(o observability.Observer) Option {
	return func(a *Assistant) { a.observer = o }
}

type Assistant struct {
	runner     Runner
	booker     Booker
	classifier Classifier
	speaker    voice.Speaker
	observer   observability.Observer
	routing    config.ConditionalConfig
}

func New(runner Runner, booker Booker, routing config.ConditionalConfig, opts ...Option) *Assistant {
	a := &Assistant{
		runner:     runner,
		booker:     booker,
		classifier: DefaultKeywords(),
		routing:    routing,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type exchange struct {
	dashboard *session.Dashboard
	text      string
	intent    Intent
	reply     Reply
}

// Handle answers text within the dashboard's context. Both the utterance
// and the reply are appended to the dashboard's chat history.
func (a *Assistant) Handle(ctx context.Context, d *session.Dashboard, text string) (Reply, error) {
	d.AddMessage(session.RoleUser, text)

	state := exchange{dashboard: d, text: text, intent: a.classifier.Classify(text)}
	predicate := func(e exchange) (string, error) {
		return e.intent.String(), nil
	}
	routes := workflows.Routes[exchange]{
		Handlers: map[string]workflows.RouteHandler[exchange]{
			IntentAnalyze.String(): a.analyze,
			IntentBook.String():    a.book,
			IntentConfirm.String(): a.confirm,
		},
		Default: help,
	}

	out, err := workflows.ProcessConditional(ctx, a.routing, state, predicate, routes)
	if err != nil {
		return Reply{Intent: state.intent}, err
	}

	out.reply.Intent = out.intent
	d.AddMessage(session.RoleAssistant, out.reply.Text)

	if a.speaker != nil {
		if err := a.speaker.Speak(ctx, out.reply.Text); err != nil {
			observability.Emit(ctx, a.observer, observability.Event{
				Type:   EventSpeakFailed,
				Level:  observability.LevelWarning,
				Source: "assistant.Assistant",
				Data:   map[string]any{"error": err.Error()},
			})
		}
	}

	return out.reply, nil
}

func (a *Assistant) analyze(ctx context.Context, e exchange) (exchange, error) {
	req, ok := e.dashboard.LastRequest()
	if !ok {
		req = telemetry.DefaultRequest()
	}

	result, err := a.runner.Run(ctx, req)
	if err != nil {
		return e, err
	}
	e.dashboard.RecordAnalysis(req, result)

	e.reply = Reply{
		Text:   fmt.Sprintf("Analysis completed. Risk: %s. Suggested slot: %s.", result.Analysis.RiskBand, result.Schedule.ProposedSlot),
		Result: result,
	}
	return e, nil
}

func (a *Assistant) book(ctx context.Context, e exchange) (exchange, error) {
	b, err := a.bookFor(ctx, e.dashboard)
	if err != nil {
		return e, err
	}
	e.reply = Reply{
		Text:    fmt.Sprintf("Booked %s for %s.", b.Slot, b.VehicleID),
		Booking: &b,
	}
	return e, nil
}

func (a *Assistant) confirm(ctx context.Context, e exchange) (exchange, error) {
	last := e.dashboard.LastResult()
	if last == nil {
		e.reply = Reply{Text: NoAnalysisText}
		return e, nil
	}

	b, err := a.bookFor(ctx, e.dashboard)
	if err != nil {
		return e, err
	}
	e.reply = Reply{
		Text:    fmt.Sprintf("Confirmed booking for %s.", last.Schedule.ProposedSlot),
		Booking: &b,
	}
	return e, nil
}

func help(_ context.Context, e exchange) (exchange, error) {
	e.reply = Reply{Text: HelpReply}
	return e, nil
}

// bookFor books the dashboard's last analysed vehicle, or V001.
func (a *Assistant) bookFor(ctx context.Context, d *session.Dashboard) (booking.Booking, error) {
	vehicleID := telemetry.DefaultRequest().VehicleID
	if req, ok := d.LastRequest(); ok && req.VehicleID != "" {
		vehicleID = req.VehicleID
	}

	b, err := a.booker.BookService(ctx, vehicleID, bookingIssue, bookingCity)
	if err != nil {
		return booking.Booking{}, err
	}
	d.AddBooking(b)
	return b, nil
}
