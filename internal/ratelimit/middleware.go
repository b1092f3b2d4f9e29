package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pulsefit/pkg/requestcontext"
)

// Middleware limits requests per authenticated user. A limiter store failure
// fails open: shedding load is advisory, blocking all registrations is not.
func Middleware(store Store, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := requestcontext.UserID(r.Context())
			if userID.IsNil() {
				next.ServeHTTP(w, r)
				return
			}

			result, err := store.Allow(r.Context(), userID.String(), limit, window)
			if err != nil {
				logger.WarnContext(r.Context(), "rate limiter unavailable, failing open",
					"error", err.Error(),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(result.ResetAt).Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "RATE_LIMITED"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
