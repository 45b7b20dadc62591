package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"lumigente/internal/platform/logger"
	"lumigente/internal/platform/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logger attaches a request-scoped logger to the context and emits one event
// per request. A nil collector skips metrics.
func Logger(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := GetRequestID(r.Context())
			reqLog := log.With().Str("requestId", reqID).Logger()
			ctx := logger.With(r.Context(), reqLog)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			elapsed := time.Since(start)
			if collector != nil {
				collector.Record(recorder.status, elapsed)
			}
			event := reqLog.Info()
			if recorder.status >= http.StatusInternalServerError {
				event = reqLog.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", recorder.status).
				Int64("durationMs", elapsed.Milliseconds()).
				Msg("request")
		})
	}
}
