package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"docverify/pkg/requestcontext"
)

// ClientMetadata extracts client IP, User-Agent and a device summary from the
// request and adds them to the context for logs and events.
// Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), userAgent)
		ctx = requestcontext.WithDevice(ctx, DeviceSummary(userAgent))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceSummary condenses a User-Agent into "<browser> on <os>". Service
// clients without a platform fall back to their product name.
func DeviceSummary(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		name, _ := ua.Browser()
		if name == "" {
			name = "bot"
		}
		return name + " (bot)"
	}
	name, _ := ua.Browser()
	platform := ua.OS()
	switch {
	case name != "" && platform != "":
		return name + " on " + platform
	case name != "":
		return name
	default:
		return userAgent
	}
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...); the first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return "unknown"
}
