package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/cartd/internal/common"
)

// Policy maps requests onto limit buckets and carries the thresholds.
type Policy struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler enforces a sliding window limit in front of the cart routes.
// Limiter failures fail open so a degraded backend never blocks traffic.
type Handler struct {
	Limiter Limiter
	Policy  Policy
	OnError func(error)
}

// Middleware implements the http.Handler middleware interface. Rejections
// use the same JSON error envelope as the cart handlers.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Policy.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		verdict, err := h.Limiter.Allow(r.Context(), h.Policy.Key(r), h.Policy.Window, h.Policy.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		writeLimitHeaders(w, h.Policy.Max, verdict)
		if !verdict.Allowed {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeLimitHeaders(w http.ResponseWriter, max int, v Verdict) {
	if max < 0 {
		max = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(max))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(v.Remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(v.ResetAt.Unix(), 10))
	if !v.Allowed {
		retryAfter := int(time.Until(v.ResetAt).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		headers.Set("Retry-After", strconv.Itoa(retryAfter))
	}
}
