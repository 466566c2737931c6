// Package ocr extracts raw text from scanned identity documents through an
// external OCR engine.
//
// Engine runs are bounded by a weighted semaphore so long recognitions cannot
// exhaust request-handling capacity, and guarded by a circuit breaker so a
// broken engine fails fast. Only engine faults (sentinel.ErrUnavailable or a
// run timeout) count against the breaker; a document the engine rejects does
// not. Waiting for a slot honours the caller's context; once started, a run
// is detached from cancellation and always completes.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"docverify/internal/evidence/ocr/metrics"
	"docverify/pkg/platform/circuit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

// DefaultLanguage is the tesseract language pack used for US documents.
const DefaultLanguage = "eng"

// Progress status values reported by engines.
const (
	StatusLoading     = "loading"
	StatusRecognizing = "recognizing"
	StatusDone        = "done"
)

// Progress is one engine progress event.
type Progress struct {
	Status   string
	Fraction float64
}

// ProgressFunc observes engine progress. It cannot influence the run.
type ProgressFunc func(Progress)

func (f ProgressFunc) report(status string, fraction float64) {
	if f != nil {
		f(Progress{Status: status, Fraction: fraction})
	}
}

// Engine converts a document image into text.
type Engine interface {
	Recognize(ctx context.Context, path, lang string, progress ProgressFunc) (string, error)
}

// Result is the outcome of one extraction. Error is set iff Success is false.
type Result struct {
	Success bool
	Text    string
	Error   string
}

// Extractor runs an Engine under a concurrency bound and a circuit breaker.
type Extractor struct {
	engine  Engine
	lang    string
	slots   *semaphore.Weighted
	timeout time.Duration
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures the Extractor.
type Option func(*Extractor)

// WithLanguage overrides the OCR language.
func WithLanguage(lang string) Option {
	return func(e *Extractor) {
		if lang != "" {
			e.lang = lang
		}
	}
}

// WithMaxConcurrent bounds the number of simultaneous engine runs.
func WithMaxConcurrent(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRunTimeout caps a single engine run. Zero means no cap.
func WithRunTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		e.timeout = d
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(e *Extractor) {
		if b != nil {
			e.breaker = b
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func New(engine Engine, opts ...Option) *Extractor {
	e := &Extractor{
		engine:  engine,
		lang:    DefaultLanguage,
		slots:   semaphore.NewWeighted(2),
		breaker: circuit.New("ocr-engine"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract recognises the text of the document at path. Failures are reported
// in the Result, never retried.
func (e *Extractor) Extract(ctx context.Context, path string) Result {
	requestID := requestcontext.RequestID(ctx)

	if _, err := os.Stat(path); err != nil {
		e.metrics.IncFailure("unreadable")
		e.logger.WarnContext(ctx, "document not readable",
			"request_id", requestID,
			"path", path,
			"error", err,
		)
		return failed(fmt.Sprintf("document not readable: %v", err))
	}

	if !e.breaker.Allow() {
		e.metrics.IncFailure("circuit_open")
		e.logger.WarnContext(ctx, "ocr engine circuit open, failing fast",
			"request_id", requestID,
			"breaker", e.breaker.Name(),
		)
		return failed(errEngineUnavailable)
	}

	waitStart := time.Now()
	if err := e.slots.Acquire(ctx, 1); err != nil {
		e.metrics.IncFailure("queue")
		return failed(fmt.Sprintf("waiting for ocr worker: %v", err))
	}
	defer e.slots.Release(1)
	e.metrics.ObserveQueueWait(time.Since(waitStart))

	text, err := e.run(ctx, path)
	if err != nil {
		if isEngineFault(err) {
			e.recordFailure(ctx)
			e.metrics.IncFailure("engine_error")
			e.logger.ErrorContext(ctx, "ocr engine failed",
				"request_id", requestID,
				"path", path,
				"error", err,
			)
		} else {
			e.recordSuccess(ctx)
			e.metrics.IncFailure("document_rejected")
			e.logger.WarnContext(ctx, "ocr engine rejected document",
				"request_id", requestID,
				"path", path,
				"error", err,
			)
		}
		return failed(err.Error())
	}
	e.recordSuccess(ctx)

	if strings.TrimSpace(text) == "" {
		e.metrics.IncFailure("empty_text")
		e.logger.WarnContext(ctx, "ocr produced no text",
			"request_id", requestID,
			"path", path,
		)
		return failed("no text recognized in document")
	}

	return Result{Success: true, Text: text}
}

func (e *Extractor) run(ctx context.Context, path string) (string, error) {
	runCtx := context.WithoutCancel(ctx)
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, e.timeout)
		defer cancel()
	}

	e.metrics.IncInFlight()
	defer e.metrics.DecInFlight()

	start := time.Now()
	text, err := e.engine.Recognize(runCtx, path, e.lang, e.observer(ctx, path))
	switch {
	case err != nil:
		e.metrics.ObserveExtract("engine_error", time.Since(start))
	case strings.TrimSpace(text) == "":
		e.metrics.ObserveExtract("empty_text", time.Since(start))
	default:
		e.metrics.ObserveExtract("success", time.Since(start))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("ocr run exceeded %s: %w", e.timeout, err)
	}
	return text, err
}

func (e *Extractor) observer(ctx context.Context, path string) ProgressFunc {
	requestID := requestcontext.RequestID(ctx)
	return func(p Progress) {
		e.logger.DebugContext(ctx, "ocr progress",
			"request_id", requestID,
			"path", path,
			"status", p.Status,
			"progress", p.Fraction,
		)
	}
}

func (e *Extractor) recordFailure(ctx context.Context) {
	if _, change := e.breaker.RecordFailure(); change.Opened {
		e.metrics.SetCircuitOpen(true)
		e.logger.WarnContext(ctx, "ocr engine circuit opened", "breaker", e.breaker.Name())
	}
}

func (e *Extractor) recordSuccess(ctx context.Context) {
	if _, change := e.breaker.RecordSuccess(); change.Closed {
		e.metrics.SetCircuitOpen(false)
		e.logger.InfoContext(ctx, "ocr engine circuit closed", "breaker", e.breaker.Name())
	}
}

const errEngineUnavailable = "ocr engine unavailable"

func isEngineFault(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

func failed(msg string) Result {
	return Result{Success: false, Error: msg}
}
