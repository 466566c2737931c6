// Package ops provides a best-effort audit publisher for operational events.
//
// Events are forwarded to a downstream sink under a per-call timeout. When
// the sink keeps failing, a circuit breaker opens and events are dropped
// without attempting delivery until the cooldown elapses. Failures are
// counted and returned, but callers are expected to log and continue.
package ops

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/circuit"
	"docverify/pkg/platform/sentinel"
)

// Publisher guards a downstream publisher with a timeout and circuit breaker.
type Publisher struct {
	next    audit.Publisher
	breaker *circuit.Breaker
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

// WithTimeout bounds each downstream publish.
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New creates a best-effort publisher around next.
func New(next audit.Publisher, opts ...Option) *Publisher {
	p := &Publisher{
		next:    next,
		breaker: circuit.New("event-sink", circuit.WithCooldown(time.Minute)),
		timeout: 2 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit forwards event downstream. It returns sentinel.ErrCircuitOpen without
// attempting delivery while the circuit is open.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if !p.breaker.Allow() {
		p.metrics.IncCircuitBreakerDropped()
		return fmt.Errorf("drop %s event: %w", event.Type, sentinel.ErrCircuitOpen)
	}

	emitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.next.Emit(emitCtx, event)
	p.metrics.ObservePublishDuration(time.Since(start))

	if err != nil {
		p.metrics.IncPublishFailures()
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.metrics.SetCircuitBreakerState(true)
			p.logger.WarnContext(ctx, "event sink circuit opened", "breaker", p.breaker.Name(), "error", err)
		}
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}

	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.metrics.SetCircuitBreakerState(false)
		p.logger.InfoContext(ctx, "event sink circuit closed", "breaker", p.breaker.Name())
	}
	p.metrics.IncPublished(string(event.Type))
	return nil
}

// Close closes the downstream publisher.
func (p *Publisher) Close() error {
	return p.next.Close()
}
