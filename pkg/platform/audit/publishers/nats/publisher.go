// Package nats publishes audit events to NATS subjects.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	audit "docverify/pkg/platform/audit"
)

// DefaultSubjectPrefix prefixes event subjects: "<prefix>.<event_type>".
const DefaultSubjectPrefix = "docverify"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

type Publisher struct {
	conn   Conn
	prefix string
	logger *slog.Logger
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, prefix string, logger *slog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("docverify"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := New(conn, prefix, logger)
	p.logger.Info("connected to NATS", "url", url)
	return p, nil
}

func New(conn Conn, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the subject an event of type t is published on.
func (p *Publisher) Subject(t audit.EventType) string {
	return p.prefix + "." + string(t)
}

// Emit publishes the JSON-encoded event. Delivery is at-most-once.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event", "error", err)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.Subject(event.Type), data); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.Type,
			"application_id", event.ApplicationID,
			"request_id", event.RequestID,
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.DebugContext(ctx, "event published",
		"event_type", event.Type,
		"application_id", event.ApplicationID,
	)
	return nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
