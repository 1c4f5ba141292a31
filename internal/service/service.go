// Package service implements the runbook operations shared by the HTTP API
// and the CLI: generate, get, validate, execute, history, invalidate and
// list.
package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/execution"
	"github.com/abhishekK50/wardenxt/internal/generator"
	"github.com/abhishekK50/wardenxt/internal/incident"
	"github.com/abhishekK50/wardenxt/internal/log"
	"github.com/abhishekK50/wardenxt/internal/metrics"
	"github.com/abhishekK50/wardenxt/internal/provider"
	"github.com/abhishekK50/wardenxt/internal/runbook"
	"github.com/abhishekK50/wardenxt/internal/safety"
	"github.com/abhishekK50/wardenxt/internal/store"
	"github.com/abhishekK50/wardenxt/internal/telemetry"
)

// GenerateRequest parameterises Generate.
type GenerateRequest struct {
	FocusArea string `json:"focus_area"`
	MaxSteps  int    `json:"max_steps"`
}

// ExecuteRequest parameterises Execute.
type ExecuteRequest struct {
	StepNumber       int    `json:"step_number"`
	CommandIndex     int    `json:"command_index"`
	DryRun           bool   `json:"dry_run"`
	ConfirmationText string `json:"confirmation_text,omitempty"`
	ExecutedBy       string `json:"executed_by,omitempty"`
}

// HistorySummary is an incident's execution history with derived counts.
type HistorySummary struct {
	IncidentID      string                    `json:"incident_id"`
	ExecutionsCount int                       `json:"executions_count"`
	SuccessfulCount int                       `json:"successful_count"`
	FailedCount     int                       `json:"failed_count"`
	DryRunCount     int                       `json:"dry_run_count"`
	History         []runbook.ExecutionResult `json:"history"`
}

// CachedRunbook summarises one live cache entry.
type CachedRunbook struct {
	IncidentID    string    `json:"incident_id"`
	GeneratedAt   time.Time `json:"generated_at"`
	AgeMinutes    int       `json:"age_minutes"`
	TotalSteps    int       `json:"total_steps"`
	Severity      string    `json:"severity"`
	EstimatedTime string    `json:"estimated_time"`
}

// CacheListing is the result of List.
type CacheListing struct {
	CachedCount     int             `json:"cached_count"`
	CacheTTLMinutes int             `json:"cache_ttl_minutes"`
	Runbooks        []CachedRunbook `json:"runbooks"`
}

// InvalidateResult acknowledges Invalidate.
type InvalidateResult struct {
	Success    bool   `json:"success"`
	IncidentID string `json:"incident_id"`
	Message    string `json:"message"`
}

// Service wires the runbook components together. It holds no state of its
// own beyond the injected store.
type Service struct {
	incidents  incident.Source
	generator  *generator.Generator
	store      store.Store
	classifier *safety.Classifier
	validator  *runbook.Validator
	controller *execution.Controller
	metrics    *metrics.Metrics
	logger     *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClassifier sets the classifier used for validation, the confirmation
// gate and classification requests.
func WithClassifier(c *safety.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

// WithController replaces the execution controller.
func WithController(c *execution.Controller) Option {
	return func(s *Service) { s.controller = c }
}

// WithMetrics enables Prometheus recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service.
func New(incidents incident.Source, gen *generator.Generator, st store.Store, opts ...Option) *Service {
	s := &Service{
		incidents: incidents,
		generator: gen,
		store:     st,
		logger:    log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.classifier == nil {
		s.classifier = safety.Default()
	}
	s.validator = runbook.NewValidator(s.classifier)
	if s.controller == nil {
		s.controller = execution.NewController(
			execution.WithClassifier(s.classifier),
			execution.WithLogger(s.logger),
		)
	}
	return s
}

// Generate loads the incident, generates a runbook and caches it, replacing
// any previous runbook for the incident. Nothing is cached on failure.
func (s *Service) Generate(ctx context.Context, incidentID string, req GenerateRequest) (*runbook.Runbook, error) {
	ctx, span := telemetry.StartOperationSpan(ctx, "generate", incidentID)
	defer span.End()

	focus, err := generator.ParseFocus(req.FocusArea)
	if err != nil {
		return nil, s.fail(ctx, span, "generate", err)
	}
	if err := incident.ValidateID(incidentID); err != nil {
		return nil, s.fail(ctx, span, "generate", err)
	}

	inc, err := s.incidents.Load(ctx, incidentID)
	if err != nil {
		return nil, s.fail(ctx, span, "generate", err)
	}

	start := time.Now()
	res, err := s.generator.Generate(ctx, inc, generator.Request{Focus: focus, MaxSteps: req.MaxSteps})
	info := s.generator.Provider().Info()
	if err != nil {
		s.metrics.RecordProviderCall(info.Name, info.Model, !errors.IsProviderError(err), time.Since(start), 0, 0)
		s.metrics.RecordGeneration(string(focus), false, time.Since(start), 0)
		return nil, s.fail(ctx, span, "generate", err)
	}
	s.metrics.RecordProviderCall(info.Name, res.Model, true, res.Latency, res.InputTokens, res.OutputTokens)
	s.metrics.RecordGeneration(string(focus), true, time.Since(start), res.Runbook.TotalSteps)
	s.metrics.RecordValidation(res.Validation.IsValid, dangerousRules(res.Validation))

	if err := s.store.Put(ctx, res.Runbook); err != nil {
		return nil, s.fail(ctx, span, "generate", err)
	}

	telemetry.RecordSuccess(span,
		attribute.Int("total_steps", res.Runbook.TotalSteps),
		attribute.Bool("is_valid", res.Validation.IsValid),
		attribute.String("focus_area", string(focus)),
	)
	return res.Runbook, nil
}

// GetCached returns the live runbook for an incident.
func (s *Service) GetCached(ctx context.Context, incidentID string) (*runbook.Runbook, error) {
	rb, err := s.store.Get(ctx, incidentID)
	s.metrics.RecordCacheLookup("get", err == nil)
	if err != nil {
		return nil, s.fail(ctx, nil, "get", err)
	}
	return rb, nil
}

// Validate validates the cached runbook for an incident.
func (s *Service) Validate(ctx context.Context, incidentID string) (runbook.ValidationResult, error) {
	rb, err := s.store.Get(ctx, incidentID)
	s.metrics.RecordCacheLookup("validate", err == nil)
	if err != nil {
		return runbook.ValidationResult{}, s.fail(ctx, nil, "validate", err)
	}
	return s.ValidateRunbook(rb), nil
}

// ValidateRunbook validates a runbook document that was not generated here.
func (s *Service) ValidateRunbook(rb *runbook.Runbook) runbook.ValidationResult {
	res := s.validator.Validate(rb)
	s.metrics.RecordValidation(res.IsValid, dangerousRules(res))
	return res
}

// Execute runs one command of the cached runbook and appends the result to
// the incident's history. High-risk commands requested outside dry-run need
// the confirmation token; a blocked command yields a failed result, not an
// error.
func (s *Service) Execute(ctx context.Context, incidentID string, req ExecuteRequest) (runbook.ExecutionResult, error) {
	ctx, span := telemetry.StartOperationSpan(ctx, "execute", incidentID)
	defer span.End()
	span.SetAttributes(
		attribute.Int("step_number", req.StepNumber),
		attribute.Int("command_index", req.CommandIndex),
		attribute.Bool("dry_run", req.DryRun),
	)

	rb, err := s.store.Get(ctx, incidentID)
	s.metrics.RecordCacheLookup("execute", err == nil)
	if err != nil {
		return runbook.ExecutionResult{}, s.fail(ctx, span, "execute", err)
	}
	step, err := rb.Step(req.StepNumber)
	if err != nil {
		return runbook.ExecutionResult{}, s.fail(ctx, span, "execute", err)
	}
	cmd, err := step.Command(req.CommandIndex)
	if err != nil {
		return runbook.ExecutionResult{}, s.fail(ctx, span, "execute", err)
	}

	verdict := s.classifier.Classify(cmd.Command)
	if err := execution.CheckConfirmation(cmd, verdict, req.DryRun, req.ConfirmationText); err != nil {
		s.metrics.RecordApprovalRejection()
		return runbook.ExecutionResult{}, s.fail(ctx, span, "execute", err)
	}

	fingerprint, err := runbook.Fingerprint(rb)
	if err != nil {
		s.logger.WithError(err).WarnContext(ctx, "could not fingerprint runbook", "incident_id", incidentID)
	}

	result := s.controller.Execute(ctx, execution.Request{
		IncidentID:   incidentID,
		StepNumber:   req.StepNumber,
		CommandIndex: req.CommandIndex,
		Command:      cmd,
		DryRun:       req.DryRun,
		ExecutedBy:   req.ExecutedBy,
		Fingerprint:  fingerprint,
	})

	blockedRule := ""
	if !verdict.Allowed {
		blockedRule = verdict.Rule
	}
	s.metrics.RecordExecution(string(result.RiskLevel), req.DryRun, result.Success, blockedRule)

	if err := s.store.AppendResult(ctx, incidentID, result); err != nil {
		return runbook.ExecutionResult{}, s.fail(ctx, span, "execute", err)
	}

	telemetry.RecordSuccess(span,
		attribute.Bool("success", result.Success),
		attribute.String("risk_level", string(result.RiskLevel)),
	)
	return result, nil
}

// History returns the incident's execution history. An incident without
// executions has an empty history, not an error.
func (s *Service) History(ctx context.Context, incidentID string) (HistorySummary, error) {
	results, err := s.store.History(ctx, incidentID)
	if err != nil {
		return HistorySummary{}, s.fail(ctx, nil, "history", err)
	}

	sum := HistorySummary{
		IncidentID:      incidentID,
		ExecutionsCount: len(results),
		History:         results,
	}
	for _, r := range results {
		if r.Success {
			sum.SuccessfulCount++
		} else {
			sum.FailedCount++
		}
		if r.DryRun {
			sum.DryRunCount++
		}
	}
	return sum, nil
}

// Invalidate removes the incident's runbook and history. It is a NotFound
// error when no live runbook exists.
func (s *Service) Invalidate(ctx context.Context, incidentID string) (InvalidateResult, error) {
	existed, err := s.store.Delete(ctx, incidentID)
	if err != nil {
		return InvalidateResult{}, s.fail(ctx, nil, "invalidate", err)
	}
	if !existed {
		return InvalidateResult{}, s.fail(ctx, nil, "invalidate", errors.NewRunbookNotFoundError(incidentID))
	}

	s.metrics.RecordEviction("invalidated")
	s.logger.InfoContext(ctx, "runbook invalidated", "incident_id", incidentID)
	return InvalidateResult{
		Success:    true,
		IncidentID: incidentID,
		Message:    "Runbook cache cleared successfully",
	}, nil
}

// List summarises every live cached runbook, ordered by incident id.
func (s *Service) List(ctx context.Context) (CacheListing, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return CacheListing{}, s.fail(ctx, nil, "list", err)
	}

	out := CacheListing{
		CachedCount:     len(entries),
		CacheTTLMinutes: int(store.TTL / time.Minute),
		Runbooks:        make([]CachedRunbook, 0, len(entries)),
	}
	for _, e := range entries {
		out.Runbooks = append(out.Runbooks, CachedRunbook{
			IncidentID:    e.Runbook.IncidentID,
			GeneratedAt:   e.Runbook.GeneratedAt,
			AgeMinutes:    int(e.Age / time.Minute),
			TotalSteps:    e.Runbook.TotalSteps,
			Severity:      e.Runbook.Severity,
			EstimatedTime: e.Runbook.EstimatedTotalTime,
		})
	}
	s.metrics.SetCachedRunbooks(len(entries))
	return out, nil
}

// Classify returns the classifier verdict for one command.
func (s *Service) Classify(command string) safety.Verdict {
	v := s.classifier.Classify(command)
	s.metrics.RecordClassification(string(v.Tier), v.Allowed)
	return v
}

// Rules lists the classifier's rules in evaluation order.
func (s *Service) Rules() []safety.RuleInfo {
	return s.classifier.Rules()
}

// Incidents lists the incident ids the source knows about.
func (s *Service) Incidents(ctx context.Context) ([]string, error) {
	ids, err := s.incidents.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, nil, "incidents", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Provider describes the configured text-generation provider.
func (s *Service) Provider() provider.Info {
	return s.generator.Provider().Info()
}

// fail records and logs err. Unexpected errors are logged at ERROR with
// their full cause; client-addressable ones at INFO.
func (s *Service) fail(ctx context.Context, span trace.Span, op string, err error) error {
	if span != nil {
		telemetry.RecordError(span, err)
	}
	s.metrics.RecordError(string(errors.CodeOf(err)), "service")

	logger := s.logger.With("operation", op)
	switch errors.KindOf(err) {
	case errors.KindUnexpected:
		logger.LogErrorContext(ctx, err)
	case errors.KindApprovalRequired, errors.KindSafetyRejection:
		logger.WithError(err).WarnContext(ctx, fmt.Sprintf("%s rejected", op))
	default:
		logger.WithError(err).InfoContext(ctx, fmt.Sprintf("%s failed", op))
	}
	return err
}

func dangerousRules(res runbook.ValidationResult) []string {
	rules := make([]string, 0, len(res.DangerousCommands))
	for _, d := range res.DangerousCommands {
		rules = append(rules, d.Rule)
	}
	return rules
}
