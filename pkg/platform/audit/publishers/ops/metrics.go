package ops

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for best-effort event delivery.
type Metrics struct {
	Published             *prometheus.CounterVec
	CircuitBreakerDropped prometheus.Counter
	PublishFailures       prometheus.Counter
	CircuitBreakerState   prometheus.Gauge
	PublishDuration       prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with event delivery metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_events_published_total",
			Help: "Total number of events delivered to the event sink",
		}, []string{"event_type"}),
		CircuitBreakerDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docverify_events_circuit_breaker_dropped_total",
			Help: "Total number of events dropped due to circuit breaker",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docverify_events_publish_failures_total",
			Help: "Total number of event publish failures",
		}),
		CircuitBreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "docverify_events_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
		PublishDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_events_publish_duration_seconds",
			Help:    "Duration of event publish calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}),
	}
}

func (m *Metrics) IncPublished(eventType string) {
	if m != nil {
		m.Published.WithLabelValues(eventType).Inc()
	}
}

// IncCircuitBreakerDropped increments the circuit breaker dropped counter.
func (m *Metrics) IncCircuitBreakerDropped() {
	if m != nil {
		m.CircuitBreakerDropped.Inc()
	}
}

func (m *Metrics) IncPublishFailures() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}

func (m *Metrics) ObservePublishDuration(d time.Duration) {
	if m != nil {
		m.PublishDuration.Observe(d.Seconds())
	}
}

// SetCircuitBreakerState sets the circuit breaker state gauge.
func (m *Metrics) SetCircuitBreakerState(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreakerState.Set(1)
	} else {
		m.CircuitBreakerState.Set(0)
	}
}
