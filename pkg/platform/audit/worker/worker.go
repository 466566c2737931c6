package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	audit "docverify/pkg/platform/audit"
)

// ErrQueueFull is returned by Emit when the buffer has no room.
var ErrQueueFull = errors.New("audit queue full")

// Worker decouples event emission from delivery. Emit enqueues without
// blocking; Run drains the queue into the downstream publisher. Delivery
// failures are logged and dropped.
type Worker struct {
	next         audit.Publisher
	inbox        chan queued
	logger       *slog.Logger
	drainTimeout time.Duration
}

type queued struct {
	ctx   context.Context
	event audit.Event
}

// Option configures the Worker.
type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDrainTimeout bounds how long Run keeps delivering after shutdown.
func WithDrainTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.drainTimeout = d
	}
}

func NewWorker(next audit.Publisher, buffer int, opts ...Option) *Worker {
	if buffer <= 0 {
		buffer = 1024
	}
	w := &Worker{
		next:         next,
		inbox:        make(chan queued, buffer),
		logger:       slog.Default(),
		drainTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Emit enqueues event for delivery. The caller's cancellation does not reach
// the delivery, only its values do.
func (w *Worker) Emit(ctx context.Context, event audit.Event) error {
	select {
	case w.inbox <- queued{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// left within the drain timeout.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case q := <-w.inbox:
			w.deliver(q)
		}
	}
}

func (w *Worker) drain() {
	deadline := time.After(w.drainTimeout)
	for {
		select {
		case q := <-w.inbox:
			w.deliver(q)
		case <-deadline:
			if n := len(w.inbox); n > 0 {
				w.logger.Warn("dropping undelivered audit events", "count", n)
			}
			return
		default:
			return
		}
	}
}

func (w *Worker) deliver(q queued) {
	if err := w.next.Emit(q.ctx, q.event); err != nil {
		w.logger.WarnContext(q.ctx, "audit event delivery failed",
			"event_type", q.event.Type,
			"application_id", q.event.ApplicationID,
			"request_id", q.event.RequestID,
			"error", err,
		)
	}
}

// Close closes the downstream publisher. Call it after Run has returned.
func (w *Worker) Close() error {
	return w.next.Close()
}
