package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"alabs.org/doorbell-bridge/metrics"
)

// requestLogger writes one zerolog event per request and records its latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if routeContext := chi.RouteContext(r.Context()); routeContext != nil && routeContext.RoutePattern() != "" {
			route = routeContext.RoutePattern()
		}
		code := wrapped.Status()
		if code == 0 {
			code = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(code)).Observe(elapsed.Seconds())

		logEvent := log.Debug()
		if code >= http.StatusInternalServerError {
			logEvent = log.Warn()
		}
		logEvent.
			Str("event", "HTTPRequest").
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Str("remote", r.RemoteAddr).
			Int("status", code).
			Dur("elapsed", elapsed).
			Msg("Handled request")
	})
}
