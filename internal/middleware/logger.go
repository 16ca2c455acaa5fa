package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// RequestRecorder receives one observation per finished request.
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// Logger attaches l to every request context and writes one access line per
// request. Handlers reach the request logger through hlog.FromRequest.
func Logger(l zerolog.Logger, rec RequestRecorder) func(http.Handler) http.Handler {
	access := hlog.AccessHandler(func(r *http.Request, status, size int, elapsed time.Duration) {
		route := routePattern(r)
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Int("size", size).
			Dur("elapsed", elapsed).
			Msg("request")
		if rec != nil {
			rec.RecordHTTPRequest(r.Method, route, status, elapsed)
		}
	})

	return func(next http.Handler) http.Handler {
		withFields := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rid := RequestIDFromContext(r.Context()); rid != "" {
				logger := hlog.FromRequest(r).With().Str("request_id", rid).Logger()
				r = r.WithContext(logger.WithContext(r.Context()))
			}
			access(next).ServeHTTP(w, r)
		})
		return hlog.NewHandler(l)(withFields)
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return ""
}
