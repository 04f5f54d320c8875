package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/backoffice/internal/api/response"
	"github.com/kiranshivaraju/backoffice/internal/cache"
	"github.com/kiranshivaraju/backoffice/internal/logger"
	"go.uber.org/zap"
)

const (
	defaultRequestsPerMinute = 120
	window                   = time.Minute
)

// RateLimit is a fixed-window limiter per authenticated principal, backed
// by Redis counters.
type RateLimit struct {
	cache          cache.Cache
	requestsPerMin int
	now            func() time.Time
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(c cache.Cache, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{cache: c, requestsPerMin: requestsPerMin, now: time.Now}
}

// Limit must run after Authenticate; unauthenticated requests pass through.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := getPrincipal(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		count, ttl, err := rl.cache.IncrWithExpiry(r.Context(), cache.RateLimitKey(principal), window)
		if err != nil {
			// fail open
			logger.FromContext(r.Context()).Warn("rate limit unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if ttl <= 0 || ttl > window {
			ttl = window
		}
		remaining := rl.requestsPerMin - int(count)
		if remaining < 0 {
			remaining = 0
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rl.now().Add(ttl).Unix(), 10))

		if count > int64(rl.requestsPerMin) {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
