package server

import (
	"net/http"

	"github.com/abhishekK50/wardenxt/internal/health"
)

func writeProbe(w http.ResponseWriter, result *health.ProbeResult, failStatus int) {
	status := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		status = failStatus
	}
	writeJSON(w, status, result)
}

// handleLiveness always answers 200 so a draining pod is not restarted.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, s.probes.CheckLiveness(r.Context()), http.StatusOK)
}

// handleReadiness answers 503 once shutdown starts or a dependency is down.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, s.probes.CheckReadiness(r.Context()), http.StatusServiceUnavailable)
}

func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, s.probes.CheckStartup(r.Context()), http.StatusServiceUnavailable)
}
