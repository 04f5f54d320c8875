package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/backoffice/internal/logger"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Client ids outside this shape are replaced, never echoed.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags each request with an id, stores a logger carrying it in
// the request context and logs one line when the request completes.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(requestIDHeader)
			if !requestIDPattern.MatchString(requestID) {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			log := base.With(zap.String("request_id", requestID))
			r = r.WithContext(logger.WithContext(r.Context(), log))
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
