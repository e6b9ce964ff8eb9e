// Package messaging publishes case lifecycle events over NATS so
// downstream consumers (dashboards, notification services) can react to
// mutations without polling the API.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

// Config holds NATS publisher configuration.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name is the client name for connection identification.
	Name string

	// MaxReconnects is the maximum number of reconnection attempts.
	// Use -1 for infinite reconnects.
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// Timeout is the connection timeout.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "caseflow",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// CaseEventMessage is the wire shape of a published lifecycle event.
type CaseEventMessage struct {
	CaseID         string            `json:"case_id"`
	CaseNumber     string            `json:"case_number"`
	CommissariatID string            `json:"commissariat_id"`
	Action         models.ActionKind `json:"action"`
	Prior          string            `json:"prior,omitempty"`
	New            string            `json:"new"`
	Stage          models.Stage      `json:"stage"`
	Status         models.Status     `json:"status"`
	Actor          string            `json:"actor"`
	Timestamp      time.Time         `json:"timestamp"`
}

// Publisher implements the lifecycle event sink on NATS. Publish failures
// are logged, never surfaced; a down broker must not block case mutations.
type Publisher struct {
	conn *nats.Conn
	log  *slog.Logger
}

// NewPublisher connects to NATS with the given configuration.
func NewPublisher(cfg Config, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		log = slog.Default()
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{conn: conn, log: log}, nil
}

// CaseEvent publishes one mutation to
// caseflow.cases.<commissariat>.<action>.
func (p *Publisher) CaseEvent(ctx context.Context, c *models.Case, entry *models.AuditEntry) {
	if err := ctx.Err(); err != nil {
		return
	}

	msg := CaseEventMessage{
		CaseID:         c.ID,
		CaseNumber:     c.Number,
		CommissariatID: c.CommissariatID,
		Action:         entry.Action,
		Prior:          entry.Prior,
		New:            entry.New,
		Stage:          c.Stage,
		Status:         c.Status,
		Actor:          entry.Actor,
		Timestamp:      entry.Timestamp,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("failed to marshal case event", slog.String("error", err.Error()))
		return
	}

	subject := Subject(c.CommissariatID, entry.Action)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn("failed to publish case event",
			slog.String("subject", subject), slog.String("error", err.Error()))
	}
}

// Subject builds the NATS subject for one mutation.
func Subject(commissariatID string, action models.ActionKind) string {
	return fmt.Sprintf("caseflow.cases.%s.%s", commissariatID, action)
}

// Drain gracefully closes, allowing in-flight messages to complete.
func (p *Publisher) Drain() error {
	return p.conn.Drain()
}

// Close releases the connection.
func (p *Publisher) Close() {
	p.conn.Close()
}
