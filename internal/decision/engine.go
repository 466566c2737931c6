package decision

import (
	"docverify/internal/decision/metrics"
	"docverify/internal/domain"
)

// Outcome labels the decision bucket a score fell into.
type Outcome string

const (
	OutcomeAutoApproved         Outcome = "auto_approved"
	OutcomeManualReviewMinor    Outcome = "manual_review_minor"
	OutcomeManualReviewMultiple Outcome = "manual_review_multiple"
	OutcomeFailed               Outcome = "failed"
)

// Human-readable decision messages.
const (
	MessageAutoApproved         = "Document automatically verified and approved"
	MessageManualReviewMinor    = "Document requires manual review - minor discrepancies"
	MessageManualReviewMultiple = "Document requires manual review - multiple discrepancies"
	MessageFailed               = "Document verification failed - significant mismatches"
)

// Decision is the approval verdict for one scored extraction.
type Decision struct {
	AutoApproved bool
	Outcome      Outcome
	Message      string
	Status       domain.VerificationStatus
}

// Engine turns a confidence score and flags into a Decision. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	policy  domain.Policy
	metrics *metrics.Metrics
}

// Option configures the Engine.
type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func NewEngine(policy domain.Policy, opts ...Option) *Engine {
	e := &Engine{policy: policy}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decide applies the policy thresholds and records the outcome.
func (e *Engine) Decide(score int, flags []domain.VerificationFlag) Decision {
	d := Decide(e.policy, score, flags)
	e.metrics.IncrementOutcome(string(d.Outcome))
	e.metrics.ObserveConfidence(score)
	return d
}

// Decide is the pure decision rule. Any error flag blocks auto-approval
// regardless of score; message buckets are evaluated top down.
func Decide(policy domain.Policy, score int, flags []domain.VerificationFlag) Decision {
	autoApproved := score >= policy.AutoApproveMin && !domain.HasErrorFlag(flags)

	d := Decision{
		AutoApproved: autoApproved,
		Status:       domain.StatusFor(autoApproved),
	}
	switch {
	case autoApproved:
		d.Outcome, d.Message = OutcomeAutoApproved, MessageAutoApproved
	case score >= policy.ManualReviewMinorMin:
		d.Outcome, d.Message = OutcomeManualReviewMinor, MessageManualReviewMinor
	case score >= policy.ManualReviewMultipleMin:
		d.Outcome, d.Message = OutcomeManualReviewMultiple, MessageManualReviewMultiple
	default:
		d.Outcome, d.Message = OutcomeFailed, MessageFailed
	}
	return d
}
