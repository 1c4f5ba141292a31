package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhishekK50/wardenxt/internal/apidoc"
	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/metrics"
)

// APIPrefix is the base path of every API route.
const APIPrefix = "/api/v1"

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(s.recoverer)

	r.Get("/health/live", s.handleLiveness)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/startup", s.handleStartup)
	r.Get("/healthz", s.handleReadiness)
	r.Method(http.MethodGet, "/metrics", metrics.HandlerFor(s.gatherer))
	r.Get("/openapi.yaml", s.handleOpenAPI)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Post("/classify", s.handleClassify)
		r.Get("/rules", s.handleRules)
		r.Get("/incidents", s.handleIncidents)

		r.Route("/runbooks", func(r chi.Router) {
			r.Get("/", s.handleListRunbooks)
			r.Post("/validate", s.handleValidateDocument)

			r.Route("/{incidentID}", func(r chi.Router) {
				r.Get("/", s.handleGetRunbook)
				r.Delete("/", s.handleInvalidate)
				r.Post("/generate", s.handleGenerate)
				r.Post("/validate", s.handleValidate)
				r.Post("/execute", s.handleExecute)
				r.Get("/history", s.handleHistory)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorPayload{
			Code:        string(errors.ErrCodeInvalidRequest),
			Kind:        string(errors.KindNotFound),
			Message:     "no route for " + r.Method + " " + r.URL.Path,
			Suggestions: []string{"See /openapi.yaml for the available routes"},
		}})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: errorPayload{
			Code:        string(errors.ErrCodeInvalidRequest),
			Kind:        string(errors.KindInvalidRequest),
			Message:     "method " + r.Method + " not allowed for " + r.URL.Path,
			Suggestions: []string{},
		}})
	})
	return r
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(apidoc.Bytes())
}
