package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for text extraction.
type Metrics struct {
	// Engine run latency by outcome: "success", "engine_error", "empty_text"
	ExtractLatency *prometheus.HistogramVec

	// Extractions that ended without usable text, by reason
	Failures *prometheus.CounterVec

	// Time spent waiting for a worker slot
	QueueWait prometheus.Histogram

	// Engine runs currently in progress
	InFlight prometheus.Gauge

	// 0=closed, 1=open
	CircuitState prometheus.Gauge
}

// New creates a new Metrics instance with all OCR metrics registered.
func New() *Metrics {
	return &Metrics{
		ExtractLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docverify_ocr_extract_duration_seconds",
			Help:    "Duration of OCR engine runs by outcome",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"outcome"}),

		Failures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_ocr_failures_total",
			Help: "Total text extractions that produced no usable text, by reason",
		}, []string{"reason"}),

		QueueWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_ocr_queue_wait_seconds",
			Help:    "Time spent waiting for an OCR worker slot",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60},
		}),

		InFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "docverify_ocr_in_flight",
			Help: "OCR engine runs currently in progress",
		}),

		CircuitState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "docverify_ocr_circuit_state",
			Help: "OCR engine circuit breaker state (0=closed, 1=open)",
		}),
	}
}

// ObserveExtract records one engine run.
func (m *Metrics) ObserveExtract(outcome string, d time.Duration) {
	if m != nil {
		m.ExtractLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// IncFailure records an extraction failure.
func (m *Metrics) IncFailure(reason string) {
	if m != nil {
		m.Failures.WithLabelValues(reason).Inc()
	}
}

// ObserveQueueWait records how long a run waited for a slot.
func (m *Metrics) ObserveQueueWait(d time.Duration) {
	if m != nil {
		m.QueueWait.Observe(d.Seconds())
	}
}

func (m *Metrics) IncInFlight() {
	if m != nil {
		m.InFlight.Inc()
	}
}

func (m *Metrics) DecInFlight() {
	if m != nil {
		m.InFlight.Dec()
	}
}

// SetCircuitOpen updates the breaker gauge.
func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitState.Set(1)
		return
	}
	m.CircuitState.Set(0)
}
