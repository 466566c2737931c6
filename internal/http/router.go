package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docverify/internal/platform/metrics"
	ratelimitmw "docverify/internal/ratelimit/middleware"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/platform/middleware/admin"
	"docverify/pkg/platform/middleware/auth"
	"docverify/pkg/platform/middleware/metadata"
	"docverify/pkg/platform/middleware/request"
	"docverify/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators the router wires together.
type Deps struct {
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
	Validator        auth.JWTValidator
	RateLimit        *ratelimitmw.Middleware
	MetricsTokenHash string // bcrypt hash guarding /metrics
	Health           map[string]HealthCheck
}

// NewRouter wires all public endpoints. Business routes sit behind bearer
// auth and the per-client rate limiter; health and metrics do not.
func NewRouter(deps Deps, modules ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recover(deps.Logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.AccessLog(deps.Logger))
	r.Use(deps.Metrics.Middleware)

	r.Get("/healthz", healthHandler(deps.Health))
	r.With(admin.RequireAdminToken(deps.MetricsTokenHash, deps.Logger)).Handle("/metrics", metrics.Handler())

	r.Group(func(v1 chi.Router) {
		v1.Use(auth.RequireAuth(deps.Validator, deps.Logger))
		if deps.RateLimit != nil {
			v1.Use(deps.RateLimit.RateLimitClient())
		}
		for _, m := range modules {
			m.Register(v1)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "not_found"})
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = "unavailable"
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
