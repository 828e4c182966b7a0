// Package notify publishes access anomalies to NATS with the caller's trace
// context in the message headers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/tailored-agentic-units/fleetcare/ueba"
)

const DefaultSubject = "fleetcare.ueba.anomaly"

// Config holds NATS connection parameters. An empty URL disables publishing.
type Config struct {
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
}

func DefaultConfig() Config {
	return Config{Subject: DefaultSubject}
}

func (c *Config) Merge(source *Config) {
	if source.URL != "" {
		c.URL = source.URL
	}
	if source.Subject != "" {
		c.Subject = source.Subject
	}
}

// Connect dials the configured server.
func Connect(cfg *Config) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("fleetcare"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", cfg.URL, err)
	}
	return nc, nil
}

// MsgPublisher sends a message. *nats.Conn satisfies it.
type MsgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// AnomalyMessage is the JSON body of one published anomaly.
type AnomalyMessage struct {
	RunID     string     `json:"run_id"`
	VehicleID string     `json:"vehicle_id"`
	Entry     ueba.Entry `json:"entry"`
}

// Publisher sends each anomaly of a run as its own message.
type Publisher struct {
	conn    MsgPublisher
	subject string
}

func NewPublisher(conn MsgPublisher, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, subject: subject}
}

// PublishAnomalies stops at the first failed publish.
func (p *Publisher) PublishAnomalies(ctx context.Context, runID, vehicleID string, anomalies []ueba.Entry) error {
	for _, a := range anomalies {
		data, err := json.Marshal(AnomalyMessage{RunID: runID, VehicleID: vehicleID, Entry: a})
		if err != nil {
			return fmt.Errorf("encode anomaly: %w", err)
		}

		msg := &nats.Msg{Subject: p.subject, Data: data}
		otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))

		if err := p.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("publish to %s: %w", p.subject, err)
		}
	}
	return nil
}

// headerCarrier adapts nats.Msg headers to the OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}
