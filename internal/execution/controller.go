// Package execution runs a single runbook command under dry-run or live
// mode. Every command is re-classified before anything else happens, and
// live requests are downgraded to simulation.
package execution

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/log"
	"github.com/abhishekK50/wardenxt/internal/runbook"
	"github.com/abhishekK50/wardenxt/internal/safety"
)

// LivePreviewPrefix marks output of a live request that was simulated.
const LivePreviewPrefix = "[DEMO MODE] Command would execute:\n"

// BlockedPrefix starts the error of a result whose command was blocked.
const BlockedPrefix = "Command blocked for safety: "

// DefaultExecutor is recorded when a request names no executor.
const DefaultExecutor = "system"

// Request identifies one command to execute.
type Request struct {
	IncidentID   string
	StepNumber   int
	CommandIndex int
	Command      runbook.Command
	DryRun       bool
	ExecutedBy   string
	Fingerprint  string
}

// Controller executes commands. It is stateless; callers append results to
// history.
type Controller struct {
	classifier *safety.Classifier
	runner     Runner
	logger     *log.Logger
	now        func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithClassifier sets the classifier used for re-classification.
func WithClassifier(c *safety.Classifier) Option {
	return func(ctl *Controller) { ctl.classifier = c }
}

// WithRunner replaces the simulated runner.
func WithRunner(r Runner) Option {
	return func(ctl *Controller) { ctl.runner = r }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) { ctl.now = now }
}

// NewController returns a controller with the default classifier and the
// simulated runner.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		classifier: safety.Default(),
		runner:     SimulatedRunner{},
		logger:     log.DefaultLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify exposes the controller's classifier so gates above it use the
// same rules.
func (c *Controller) Classify(command string) safety.Verdict {
	return c.classifier.Classify(command)
}

// Execute classifies and then simulates req.Command. Blocked commands yield
// a failed result, not an error. Every result has DryRun set.
func (c *Controller) Execute(ctx context.Context, req Request) runbook.ExecutionResult {
	start := c.now()

	executedBy := req.ExecutedBy
	if executedBy == "" {
		executedBy = DefaultExecutor
	}

	result := runbook.ExecutionResult{
		ID:                 uuid.NewString(),
		IncidentID:         req.IncidentID,
		StepNumber:         req.StepNumber,
		CommandIndex:       req.CommandIndex,
		Command:            req.Command.Command,
		ExecutedAt:         start.UTC(),
		ExecutedBy:         executedBy,
		DryRun:             true,
		RunbookFingerprint: req.Fingerprint,
	}

	logger := c.logger.WithContext(ctx).With(
		"incident_id", req.IncidentID,
		"step_number", req.StepNumber,
		"command_index", req.CommandIndex,
		"dry_run_requested", req.DryRun,
	)

	verdict := c.classifier.Classify(req.Command.Command)
	result.RiskLevel = verdict.Tier

	if !verdict.Allowed {
		msg := BlockedPrefix + verdict.Reason
		result.Error = &msg
		result.DurationSeconds = c.now().Sub(start).Seconds()
		logger.Warn("command blocked", "rule", verdict.Rule, "risk_level", verdict.Tier)
		return result
	}

	output, err := c.runner.Run(ctx, req.Command)
	if err != nil {
		werr := errors.Wrap(errors.ErrCodeInternal, "simulate command", err)
		msg := werr.Error()
		result.Error = &msg
		result.DurationSeconds = c.now().Sub(start).Seconds()
		logger.WithError(werr).Error("command simulation failed")
		return result
	}

	if !req.DryRun {
		output = LivePreviewPrefix + output
		logger.Warn("live execution disabled, simulated instead", "runner", c.runner.Name())
	}

	result.Success = true
	result.Output = output
	result.DurationSeconds = c.now().Sub(start).Seconds()

	logger.Info("command executed",
		"risk_level", verdict.Tier,
		"rule", verdict.Rule,
		"runner", c.runner.Name(),
		"executed_by", executedBy,
	)
	return result
}
