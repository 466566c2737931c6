package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"docverify/internal/ratelimit/models"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(key string) models.Result
}

type Middleware struct {
	limiter  Limiter
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimitClient limits requests per authenticated client, falling back to
// the client IP when the request carries no client id. Must run after auth
// and client metadata middleware.
func (m *Middleware) RateLimitClient() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := "ip:" + requestcontext.ClientIP(ctx)
			if clientID := requestcontext.ClientID(ctx); clientID != "" {
				key = "client:" + clientID
			}

			result := m.limiter.Allow(key)
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"client_id", requestcontext.ClientID(ctx),
					"retry_after_s", result.RetryAfterSeconds(),
				)
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, result models.Result) {
	retryAfter := result.RetryAfterSeconds()
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many verification requests from this client. Please try again later.",
		RetryAfter: retryAfter,
	})
}
