package client

import (
	"context"
	"net/http"

	"github.com/abhishekK50/wardenxt/internal/runbook"
	"github.com/abhishekK50/wardenxt/internal/safety"
	"github.com/abhishekK50/wardenxt/internal/service"
)

// ExecuteRequest is the execute body. DryRun nil means dry run.
type ExecuteRequest struct {
	StepNumber       int    `json:"step_number"`
	CommandIndex     int    `json:"command_index"`
	DryRun           *bool  `json:"dry_run,omitempty"`
	ConfirmationText string `json:"confirmation_text,omitempty"`
	ExecutedBy       string `json:"executed_by,omitempty"`
}

// IncidentList is the incidents response.
type IncidentList struct {
	Incidents []string `json:"incidents"`
	Count     int      `json:"count"`
}

func (c *Client) Generate(ctx context.Context, incidentID string, req service.GenerateRequest) (*runbook.Runbook, error) {
	var rb runbook.Runbook
	if err := c.do(ctx, http.MethodPost, "/runbooks/"+escape(incidentID)+"/generate", req, &rb); err != nil {
		return nil, err
	}
	return &rb, nil
}

func (c *Client) Get(ctx context.Context, incidentID string) (*runbook.Runbook, error) {
	var rb runbook.Runbook
	if err := c.do(ctx, http.MethodGet, "/runbooks/"+escape(incidentID), nil, &rb); err != nil {
		return nil, err
	}
	return &rb, nil
}

func (c *Client) Validate(ctx context.Context, incidentID string) (runbook.ValidationResult, error) {
	var res runbook.ValidationResult
	err := c.do(ctx, http.MethodPost, "/runbooks/"+escape(incidentID)+"/validate", nil, &res)
	return res, err
}

func (c *Client) Execute(ctx context.Context, incidentID string, req ExecuteRequest) (runbook.ExecutionResult, error) {
	var res runbook.ExecutionResult
	err := c.do(ctx, http.MethodPost, "/runbooks/"+escape(incidentID)+"/execute", req, &res)
	return res, err
}

func (c *Client) History(ctx context.Context, incidentID string) (service.HistorySummary, error) {
	var hist service.HistorySummary
	err := c.do(ctx, http.MethodGet, "/runbooks/"+escape(incidentID)+"/history", nil, &hist)
	return hist, err
}

func (c *Client) Invalidate(ctx context.Context, incidentID string) (service.InvalidateResult, error) {
	var res service.InvalidateResult
	err := c.do(ctx, http.MethodDelete, "/runbooks/"+escape(incidentID), nil, &res)
	return res, err
}

func (c *Client) List(ctx context.Context) (service.CacheListing, error) {
	var listing service.CacheListing
	err := c.do(ctx, http.MethodGet, "/runbooks", nil, &listing)
	return listing, err
}

func (c *Client) Classify(ctx context.Context, command string) (safety.Verdict, error) {
	var v safety.Verdict
	err := c.do(ctx, http.MethodPost, "/classify", map[string]string{"command": command}, &v)
	return v, err
}

func (c *Client) Incidents(ctx context.Context) (IncidentList, error) {
	var list IncidentList
	err := c.do(ctx, http.MethodGet, "/incidents", nil, &list)
	return list, err
}
