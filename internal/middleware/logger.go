package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// HTTPRecorder receives one observation per served request.
type HTTPRecorder interface {
	RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, took time.Duration)
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logger writes an access log line per request and feeds rec, if set.
func Logger(l zerolog.Logger, rec HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			took := time.Since(start)

			route := routePattern(r)
			if rec != nil {
				rec.RecordHTTPRequest(r.Context(), r.Method, route, rw.status, took)
			}
			event := l.Info()
			if rw.status >= http.StatusInternalServerError {
				event = l.Error()
			}
			event.
				Str("request_id", RequestIDFromContext(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Dur("took", took).
				Msg("http request")
		})
	}
}

// routePattern returns the matched chi pattern, or "unmatched".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
