// Package verification orchestrates one identity document verification:
// extract text, parse fields, load the application, score and decide. Scoring
// is pure; persisting the outcome is a separate Commit step.
package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docverify/internal/decision"
	"docverify/internal/decision/metrics"
	"docverify/internal/domain"
	"docverify/internal/matching"
	"docverify/internal/verification/ports"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/audit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

const tracerName = "docverify/internal/verification"

// Service runs verifications. It keeps no per-run state and is safe for
// concurrent use.
type Service struct {
	extractor    ports.TextExtractor
	parser       ports.FieldParser
	applications ports.ApplicationStore
	statuses     ports.StatusStore
	events       ports.EventPublisher

	policy  domain.Policy
	matcher *matching.Matcher
	engine  *decision.Engine

	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithEventPublisher enables verification_completed events after commits.
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithPolicy overrides the default thresholds.
func WithPolicy(policy domain.Policy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracerProvider sets the provider for stage spans. The global provider
// is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

func NewService(
	extractor ports.TextExtractor,
	parser ports.FieldParser,
	applications ports.ApplicationStore,
	statuses ports.StatusStore,
	opts ...Option,
) *Service {
	s := &Service{
		extractor:    extractor,
		parser:       parser,
		applications: applications,
		statuses:     statuses,
		policy:       domain.DefaultPolicy(),
		logger:       slog.Default(),
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.matcher = matching.NewMatcher(s.policy)
	s.engine = decision.NewEngine(s.policy, decision.WithMetrics(s.metrics))
	return s
}

// Verify evaluates the document at documentPath against the application.
// Unreadable documents and unknown applications yield a result with
// Success=false, not an error. Only application store failures are errors.
func (s *Service) Verify(ctx context.Context, applicationID id.ApplicationID, documentPath string) (*domain.VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.verify",
		trace.WithAttributes(attribute.Int64("application.id", applicationID.Int64())))
	defer span.End()

	requestID := requestcontext.RequestID(ctx)

	extraction := s.extract(ctx, documentPath)
	if !extraction.Success {
		s.metrics.IncrementTerminalFailure("ocr")
		s.logger.WarnContext(ctx, "text extraction failed",
			"request_id", requestID,
			"application_id", applicationID.String(),
			"error", extraction.Error,
		)
		result := OCRFailureResult()
		span.SetAttributes(attribute.Bool("verification.success", false))
		return &result, nil
	}

	extracted := s.parse(ctx, extraction.Text)

	record, err := s.lookup(ctx, applicationID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "application lookup failed")
			s.logger.ErrorContext(ctx, "application lookup failed",
				"request_id", requestID,
				"application_id", applicationID.String(),
				"error", err,
			)
			return nil, storeError(err, "failed to load application")
		}
		s.metrics.IncrementTerminalFailure("application_not_found")
		s.logger.WarnContext(ctx, "application not found",
			"request_id", requestID,
			"application_id", applicationID.String(),
		)
		result := ApplicationNotFoundResult(extracted)
		span.SetAttributes(attribute.Bool("verification.success", false))
		return &result, nil
	}

	result := s.evaluate(ctx, extracted, *record)
	span.SetAttributes(
		attribute.Bool("verification.success", true),
		attribute.Int("verification.confidence_score", result.ConfidenceScore),
		attribute.Bool("verification.auto_approved", result.AutoApproved),
	)
	s.logger.InfoContext(ctx, "document evaluated",
		"request_id", requestID,
		"application_id", applicationID.String(),
		"confidence_score", result.ConfidenceScore,
		"auto_approved", result.AutoApproved,
		"flags", len(result.Flags),
	)
	return &result, nil
}

// Commit persists the status derived from result and then publishes a
// verification_completed event. Results with Success=false have nothing to
// record and are skipped. Event delivery failures are logged, not returned.
func (s *Service) Commit(ctx context.Context, applicationID id.ApplicationID, result *domain.VerificationResult) error {
	if result == nil || !result.Success {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "verification.commit",
		trace.WithAttributes(attribute.Int64("application.id", applicationID.Int64())))
	defer span.End()
	start := time.Now()

	record := domain.StatusRecord{
		ApplicationID:   applicationID,
		VerificationID:  id.NewVerificationID(),
		Status:          domain.StatusFor(result.AutoApproved),
		ConfidenceScore: result.ConfidenceScore,
		Flags:           result.Flags,
		ExtractedData:   result.ExtractedData,
		UpdatedAt:       requestcontext.Now(ctx),
	}
	err := s.statuses.SaveStatus(ctx, record)
	s.metrics.ObserveStageLatency("commit", time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status write failed")
		return storeError(err, "failed to commit verification status")
	}

	s.publish(ctx, record, result)
	return nil
}

// VerifyAndCommit runs Verify and then Commit, logging and swallowing commit
// failures. The returned result can therefore diverge from the stored status.
func (s *Service) VerifyAndCommit(ctx context.Context, applicationID id.ApplicationID, documentPath string) (*domain.VerificationResult, error) {
	result, err := s.Verify(ctx, applicationID, documentPath)
	if err != nil {
		return nil, err
	}
	if err := s.Commit(ctx, applicationID, result); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist verification status",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", applicationID.String(),
			"error", err,
		)
	}
	return result, nil
}

// Status returns the last committed status for an application.
func (s *Service) Status(ctx context.Context, applicationID id.ApplicationID) (*domain.StatusRecord, error) {
	record, err := s.statuses.FindStatus(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, storeError(err, "failed to load verification status")
	}
	return record, nil
}

// storeError maps a store failure to a coded error. An unreachable store is
// reported as unavailable so callers can retry.
func storeError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) extract(ctx context.Context, documentPath string) ports.Extraction {
	ctx, span := s.tracer.Start(ctx, "verification.extract")
	defer span.End()
	start := time.Now()
	extraction := s.extractor.Extract(ctx, documentPath)
	s.metrics.ObserveStageLatency("extract", time.Since(start))
	if !extraction.Success {
		span.SetStatus(codes.Error, extraction.Error)
	}
	return extraction
}

func (s *Service) parse(ctx context.Context, text string) domain.ExtractedIdentityData {
	ctx, span := s.tracer.Start(ctx, "verification.parse")
	defer span.End()
	start := time.Now()
	extracted := s.parser.Parse(ctx, text)
	s.metrics.ObserveStageLatency("parse", time.Since(start))
	return extracted
}

func (s *Service) lookup(ctx context.Context, applicationID id.ApplicationID) (*domain.ApplicationIdentityRecord, error) {
	ctx, span := s.tracer.Start(ctx, "verification.lookup")
	defer span.End()
	start := time.Now()
	record, err := s.applications.FindIdentity(ctx, applicationID)
	s.metrics.ObserveStageLatency("lookup", time.Since(start))
	return record, err
}

func (s *Service) evaluate(ctx context.Context, extracted domain.ExtractedIdentityData, record domain.ApplicationIdentityRecord) domain.VerificationResult {
	_, span := s.tracer.Start(ctx, "verification.evaluate")
	defer span.End()
	start := time.Now()
	outcome := s.matcher.Match(extracted, record, requestcontext.Now(ctx))
	d := s.engine.Decide(outcome.ConfidenceScore, outcome.Flags)
	s.metrics.ObserveStageLatency("evaluate", time.Since(start))
	span.SetAttributes(attribute.String("decision.outcome", string(d.Outcome)))
	return scoredResult(extracted, outcome, d)
}

func (s *Service) publish(ctx context.Context, record domain.StatusRecord, result *domain.VerificationResult) {
	if s.events == nil {
		return
	}
	flagged := make([]string, 0, len(result.Flags))
	errorFlags := 0
	for _, f := range result.Flags {
		flagged = append(flagged, string(f.Field))
		if f.Severity == domain.SeverityError {
			errorFlags++
		}
	}
	event := audit.Event{
		ID:              uuid.New(),
		Type:            audit.EventVerificationCompleted,
		Timestamp:       record.UpdatedAt,
		ApplicationID:   record.ApplicationID.String(),
		VerificationID:  record.VerificationID.String(),
		Status:          string(record.Status),
		Outcome:         string(decision.Decide(s.policy, result.ConfidenceScore, result.Flags).Outcome),
		ConfidenceScore: result.ConfidenceScore,
		AutoApproved:    result.AutoApproved,
		FlaggedFields:   flagged,
		ErrorFlags:      errorFlags,
		RequestID:       requestcontext.RequestID(ctx),
		ClientID:        requestcontext.ClientID(ctx),
		Device:          requestcontext.Device(ctx),
	}
	if err := s.events.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish verification event",
			"request_id", event.RequestID,
			"application_id", event.ApplicationID,
			"error", err,
		)
	}
}
