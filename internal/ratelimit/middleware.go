package ratelimit

import (
	"log/slog"
	"net/http"

	"github.com/det175/lanibot-gateway/internal/httputil"
	"github.com/det175/lanibot-gateway/internal/telemetry"
)

// Middleware returns chi middleware that enforces the per-client request
// window on the routes it wraps. Store errors never reject: the limiter is
// advisory, not a correctness gate.
func Middleware(store Store, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := ClientIdentity(r)

			allowed, err := store.Allow(r.Context(), identity)
			if err != nil {
				slog.Error("rate limit check failed", "client", identity, "error", err)
				allowed = true
			}

			if !allowed {
				slog.Warn("rate limit exceeded", "client", identity, "path", r.URL.Path)
				if metrics != nil {
					metrics.RecordRateLimitHit()
				}
				httputil.WriteRateLimited(w, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
