// Package generator drafts runbooks by prompting a text-generation provider
// with incident context and turning the answer into a validated Runbook.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/incident"
	"github.com/abhishekK50/wardenxt/internal/log"
	"github.com/abhishekK50/wardenxt/internal/provider"
	"github.com/abhishekK50/wardenxt/internal/runbook"
)

// Focus narrows what kind of steps the provider is asked for.
type Focus string

const (
	FocusAll               Focus = "all"
	FocusDiagnostic        Focus = "diagnostic"
	FocusRemediation       Focus = "remediation"
	FocusEmergencyRollback Focus = "emergency_rollback"
)

// Focuses lists the accepted focus areas.
var Focuses = []Focus{FocusAll, FocusDiagnostic, FocusRemediation, FocusEmergencyRollback}

// ParseFocus accepts a focus name; the empty string means FocusAll.
func ParseFocus(s string) (Focus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FocusAll, nil
	}
	for _, f := range Focuses {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.NewInvalidRequestError(fmt.Sprintf("unknown focus_area %q (want all, diagnostic, remediation or emergency_rollback)", s))
}

// Request parameterises one generation.
type Request struct {
	Focus    Focus
	MaxSteps int
}

// Result is a generated runbook with the validation run against it.
type Result struct {
	Runbook    *runbook.Runbook
	Validation runbook.ValidationResult
	Model      string
	Latency    time.Duration

	InputTokens  int
	OutputTokens int
}

// Generator turns incidents into runbooks.
type Generator struct {
	client    provider.Client
	validator *runbook.Validator
	logger    *log.Logger
	now       func() time.Time
	maxSteps  int
}

// Option configures a Generator.
type Option func(*Generator)

// WithValidator replaces the default validator.
func WithValidator(v *runbook.Validator) Option {
	return func(g *Generator) { g.validator = v }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithClock sets the clock stamped on generated runbooks.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithDefaultMaxSteps sets the step cap used when a request gives none.
func WithDefaultMaxSteps(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxSteps = n
		}
	}
}

// New creates a Generator backed by client.
func New(client provider.Client, opts ...Option) *Generator {
	g := &Generator{
		client:    client,
		validator: runbook.NewValidator(nil),
		logger:    log.DefaultLogger(),
		now:       func() time.Time { return time.Now().UTC() },
		maxSteps:  runbook.DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate prompts the provider, extracts and builds the runbook, then
// validates it. Blocking issues are appended to the runbook's warnings so
// they travel with it; a runbook that cannot be built is an error and
// nothing is returned.
func (g *Generator) Generate(ctx context.Context, inc *incident.Incident, req Request) (*Result, error) {
	if inc == nil {
		return nil, errors.NewInvalidRequestError("incident is required")
	}
	if req.Focus == "" {
		req.Focus = FocusAll
	}
	if req.MaxSteps <= 0 {
		req.MaxSteps = g.maxSteps
	}

	id := inc.Summary.IncidentID
	logger := g.logger.With("incident_id", id, "focus_area", string(req.Focus))

	prompt := BuildPrompt(inc, req.Focus)
	logger.DebugContext(ctx, "requesting runbook", "prompt_length", len(prompt))

	resp, err := g.client.Generate(ctx, &provider.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Metadata:     map[string]string{"incident_id": id, "focus_area": string(req.Focus)},
	})
	if err != nil {
		logger.WithError(err).WarnContext(ctx, "runbook generation failed")
		return nil, err
	}

	raw, err := runbook.Parse(resp.Content)
	if err != nil {
		logger.WithError(err).WarnContext(ctx, "generated text held no runbook", "response_length", len(resp.Content))
		return nil, err
	}

	rb, err := runbook.Build(runbook.Meta{
		IncidentID:   id,
		IncidentType: inc.Summary.IncidentType,
		Severity:     inc.Summary.Severity,
		GeneratedAt:  g.now(),
	}, raw, req.MaxSteps)
	if err != nil {
		logger.WithError(err).WarnContext(ctx, "generated runbook is malformed")
		return nil, err
	}

	validation := g.validator.Validate(rb)
	if !validation.IsValid {
		logger.WarnContext(ctx, "generated runbook failed validation",
			"issues", len(validation.Issues),
			"dangerous_commands", len(validation.DangerousCommands))
		rb.Warnings = append(rb.Warnings, validation.Issues...)
	}

	logger.InfoContext(ctx, "runbook generated",
		"total_steps", rb.TotalSteps,
		"estimated_time", rb.EstimatedTotalTime,
		"model", resp.Model,
		"is_valid", validation.IsValid)

	return &Result{
		Runbook:      rb,
		Validation:   validation,
		Model:        resp.Model,
		Latency:      resp.Latency,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

// Provider returns the underlying client.
func (g *Generator) Provider() provider.Client {
	return g.client
}
