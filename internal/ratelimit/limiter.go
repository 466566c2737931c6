// Package ratelimit bounds request rates per calling client with in-process
// token buckets.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"docverify/internal/ratelimit/metrics"
	"docverify/internal/ratelimit/models"
)

const defaultIdleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps one token bucket per key. Buckets idle for longer than
// the idle TTL are evicted by Prune.
type ClientLimiter struct {
	mu      sync.Mutex
	limit   models.Limit
	buckets map[string]*bucket
	idleTTL time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*ClientLimiter)

func WithClock(now func() time.Time) Option {
	return func(l *ClientLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

func WithIdleTTL(d time.Duration) Option {
	return func(l *ClientLimiter) {
		if d > 0 {
			l.idleTTL = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *ClientLimiter) {
		l.metrics = m
	}
}

func New(limit models.Limit, opts ...Option) *ClientLimiter {
	l := &ClientLimiter{
		limit:   limit,
		buckets: make(map[string]*bucket),
		idleTTL: defaultIdleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow takes one token from key's bucket. A rejected request does not
// consume a token.
func (l *ClientLimiter) Allow(key string) models.Result {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(l.limit.Every), l.limit.Burst)}
		l.buckets[key] = b
		l.metrics.SetTrackedKeys(len(l.buckets))
	}
	b.lastSeen = now
	res := b.limiter.ReserveN(now, 1)
	l.mu.Unlock()

	if !res.OK() {
		l.metrics.IncrementRejections()
		return models.Result{Allowed: false, RetryAfter: l.limit.Every}
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		l.metrics.IncrementRejections()
		return models.Result{Allowed: false, RetryAfter: delay}
	}
	return models.Result{Allowed: true}
}

// Prune evicts idle buckets and returns how many were removed.
func (l *ClientLimiter) Prune() int {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	l.metrics.AddEvicted(removed)
	l.metrics.SetTrackedKeys(len(l.buckets))
	return removed
}

// Run prunes idle buckets every interval until ctx is done.
func (l *ClientLimiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Prune()
		}
	}
}
