package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejections  prometheus.Counter
	TrackedKeys prometheus.Gauge
	EvictedKeys prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Rejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docverify_ratelimit_rejections_total",
			Help: "Total number of requests rejected by the per-client rate limiter",
		}),
		TrackedKeys: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "docverify_ratelimit_tracked_keys",
			Help: "Current number of clients with a live token bucket",
		}),
		EvictedKeys: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docverify_ratelimit_evicted_keys_total",
			Help: "Total number of idle token buckets evicted",
		}),
	}
}

func (m *Metrics) IncrementRejections() {
	if m != nil {
		m.Rejections.Inc()
	}
}

func (m *Metrics) SetTrackedKeys(count int) {
	if m != nil {
		m.TrackedKeys.Set(float64(count))
	}
}

func (m *Metrics) AddEvicted(count int) {
	if m != nil && count > 0 {
		m.EvictedKeys.Add(float64(count))
	}
}
