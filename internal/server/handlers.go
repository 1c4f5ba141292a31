package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/incident"
	"github.com/abhishekK50/wardenxt/internal/runbook"
	"github.com/abhishekK50/wardenxt/internal/service"
)

// executeBody mirrors service.ExecuteRequest. DryRun defaults to true when
// omitted.
type executeBody struct {
	StepNumber       *int   `json:"step_number"`
	CommandIndex     int    `json:"command_index"`
	DryRun           *bool  `json:"dry_run"`
	ConfirmationText string `json:"confirmation_text"`
	ExecutedBy       string `json:"executed_by"`
}

type classifyBody struct {
	Command string `json:"command"`
}

type incidentList struct {
	Incidents []string `json:"incidents"`
	Count     int      `json:"count"`
}

// incidentID returns the path parameter after checking its shape.
func incidentID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "incidentID")
	if err := incident.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id, err := incidentID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req service.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.MaxSteps < 0 {
		s.writeError(w, r, errors.NewInvalidRequestError("max_steps must not be negative"))
		return
	}

	rb, err := s.svc.Generate(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rb)
}

func (s *Server) handleGetRunbook(w http.ResponseWriter, r *http.Request) {
	id, err := incidentID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rb, err := s.svc.GetCached(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rb)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	id, err := incidentID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Validate(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleValidateDocument(w http.ResponseWriter, r *http.Request) {
	var rb runbook.Runbook
	if err := decodeJSON(r, &rb); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(rb.Steps) == 0 {
		s.writeError(w, r, errors.NewInvalidRequestError("runbook document has no steps"))
		return
	}
	if rb.TotalSteps == 0 {
		rb.TotalSteps = len(rb.Steps)
	}
	writeJSON(w, http.StatusOK, s.svc.ValidateRunbook(&rb))
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := incidentID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body executeBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.StepNumber == nil {
		s.writeError(w, r, errors.NewInvalidRequestError("step_number is required"))
		return
	}

	req := service.ExecuteRequest{
		StepNumber:       *body.StepNumber,
		CommandIndex:     body.CommandIndex,
		DryRun:           body.DryRun == nil || *body.DryRun,
		ConfirmationText: body.ConfirmationText,
		ExecutedBy:       body.ExecutedBy,
	}
	res, err := s.svc.Execute(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := incidentID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hist, err := s.svc.History(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	id, err := incidentID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Invalidate(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListRunbooks(w http.ResponseWriter, r *http.Request) {
	listing, err := s.svc.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var body classifyBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Command == "" {
		s.writeError(w, r, errors.NewInvalidRequestError("command is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Classify(body.Command))
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Rules())
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.Incidents(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, incidentList{Incidents: ids, Count: len(ids)})
}
