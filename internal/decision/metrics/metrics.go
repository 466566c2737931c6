package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for verification decisions.
type Metrics struct {
	// Decision outcomes: "auto_approved", "manual_review_minor", "manual_review_multiple", "failed"
	DecisionOutcome *prometheus.CounterVec

	// Distribution of confidence scores
	ConfidenceScore prometheus.Histogram

	// Pipeline stage latencies by stage
	StageLatency *prometheus.HistogramVec

	// Terminal failures: "ocr", "application_not_found"
	TerminalFailures *prometheus.CounterVec
}

// New creates a new Metrics instance with all decision metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_decision_outcomes_total",
			Help: "Total verification decisions by outcome",
		}, []string{"outcome"}),

		ConfidenceScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_decision_confidence_score",
			Help:    "Confidence scores of evaluated documents",
			Buckets: []float64{20, 40, 50, 60, 70, 80, 90, 95, 100},
		}),

		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docverify_verification_stage_duration_seconds",
			Help:    "Duration of verification pipeline stages",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}), // stage: "extract", "parse", "lookup", "evaluate", "commit"

		TerminalFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_verification_terminal_failures_total",
			Help: "Verifications that ended without a score",
		}, []string{"reason"}),
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveConfidence records a confidence score.
func (m *Metrics) ObserveConfidence(score int) {
	if m != nil {
		m.ConfidenceScore.Observe(float64(score))
	}
}

// ObserveStageLatency records the duration of one pipeline stage.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementTerminalFailure records a verification that produced no score.
func (m *Metrics) IncrementTerminalFailure(reason string) {
	if m != nil {
		m.TerminalFailures.WithLabelValues(reason).Inc()
	}
}
