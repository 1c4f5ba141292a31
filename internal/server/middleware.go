package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// instrument logs every request and records it under its route pattern so
// that incident ids do not explode metric cardinality.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
			if len(route) > 1 {
				route = strings.TrimSuffix(route, "/")
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPRequest(r.Method, route, status, elapsed)

		logger := s.logger.WithContext(r.Context())
		args := []any{
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", elapsed.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		}
		switch {
		case route == "/health/live" || route == "/health/ready" || route == "/healthz" || route == "/metrics":
			logger.DebugContext(r.Context(), "http request", args...)
		case status >= 500:
			logger.WarnContext(r.Context(), "http request", args...)
		default:
			logger.InfoContext(r.Context(), "http request", args...)
		}
	})
}

// recoverer turns a handler panic into an INTERNAL-001 response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.writeError(w, r, errors.NewInternalError(r.Method+" "+r.URL.Path, fmt.Errorf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
