// Package runbook holds the typed model of a generated remediation runbook,
// its construction from raw generated data and its validation.
package runbook

import (
	"time"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/safety"
)

// Category is the phase a step belongs to.
type Category string

const (
	CategoryDiagnostic   Category = "diagnostic"
	CategoryRemediation  Category = "remediation"
	CategoryVerification Category = "verification"
	CategoryRollback     Category = "rollback"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryDiagnostic, CategoryRemediation, CategoryVerification, CategoryRollback:
		return true
	}
	return false
}

const (
	// DefaultMaxSteps caps generated runbooks when the caller gives no limit.
	DefaultMaxSteps = 10
	// DefaultTimeoutSeconds is the command timeout when none is generated.
	DefaultTimeoutSeconds = 30
	// DefaultStepDuration is the estimate used when a step carries none.
	DefaultStepDuration = "1 minute"
)

// Command is a single executable instruction plus its safety metadata.
type Command struct {
	Command          string      `json:"command" yaml:"command"`
	Description      string      `json:"description" yaml:"description"`
	RiskLevel        safety.Tier `json:"risk_level" yaml:"risk_level"`
	ExpectedOutput   string      `json:"expected_output,omitempty" yaml:"expected_output,omitempty"`
	TimeoutSeconds   int         `json:"timeout_seconds" yaml:"timeout_seconds"`
	RequiresApproval bool        `json:"requires_approval" yaml:"requires_approval"`
}

// Step is one phase of a runbook.
type Step struct {
	StepNumber        int       `json:"step_number" yaml:"step_number"`
	Category          Category  `json:"category" yaml:"category"`
	Title             string    `json:"title" yaml:"title"`
	Commands          []Command `json:"commands" yaml:"commands"`
	PrerequisiteSteps []int     `json:"prerequisite_steps" yaml:"prerequisite_steps"`
	EstimatedDuration string    `json:"estimated_duration" yaml:"estimated_duration"`
}

// Command returns the command at index or a not-found error.
func (s *Step) Command(index int) (Command, error) {
	if index < 0 || index >= len(s.Commands) {
		return Command{}, errors.NewCommandNotFoundError(s.StepNumber, index, len(s.Commands))
	}
	return s.Commands[index], nil
}

// Runbook is a generated, ordered remediation procedure for one incident.
// It is not mutated once cached; regeneration replaces it.
type Runbook struct {
	IncidentID         string    `json:"incident_id" yaml:"incident_id"`
	GeneratedAt        time.Time `json:"generated_at" yaml:"generated_at"`
	IncidentType       string    `json:"incident_type" yaml:"incident_type"`
	Severity           string    `json:"severity" yaml:"severity"`
	Steps              []Step    `json:"steps" yaml:"steps"`
	TotalSteps         int       `json:"total_steps" yaml:"total_steps"`
	EstimatedTotalTime string    `json:"estimated_total_time" yaml:"estimated_total_time"`
	Warnings           []string  `json:"warnings" yaml:"warnings"`
	Prerequisites      []string  `json:"prerequisites" yaml:"prerequisites"`
}

// Step returns the step with the given ordinal.
func (r *Runbook) Step(number int) (*Step, error) {
	for i := range r.Steps {
		if r.Steps[i].StepNumber == number {
			return &r.Steps[i], nil
		}
	}
	return nil, errors.NewStepNotFoundError(r.IncidentID, number)
}

// Clone returns a deep copy so callers cannot reach into a cached runbook.
func (r *Runbook) Clone() *Runbook {
	if r == nil {
		return nil
	}
	out := *r
	out.Warnings = append([]string(nil), r.Warnings...)
	out.Prerequisites = append([]string(nil), r.Prerequisites...)
	out.Steps = make([]Step, len(r.Steps))
	for i, s := range r.Steps {
		s.Commands = append([]Command(nil), s.Commands...)
		s.PrerequisiteSteps = append([]int(nil), s.PrerequisiteSteps...)
		out.Steps[i] = s
	}
	return &out
}

// ExecutionResult records one execution attempt. Results are append-only per
// incident.
type ExecutionResult struct {
	ID                 string      `json:"id" yaml:"id"`
	IncidentID         string      `json:"incident_id" yaml:"incident_id"`
	StepNumber         int         `json:"step_number" yaml:"step_number"`
	CommandIndex       int         `json:"command_index" yaml:"command_index"`
	Command            string      `json:"command" yaml:"command"`
	RiskLevel          safety.Tier `json:"risk_level" yaml:"risk_level"`
	Success            bool        `json:"success" yaml:"success"`
	Output             string      `json:"output" yaml:"output"`
	Error              *string     `json:"error" yaml:"error"`
	ExecutedAt         time.Time   `json:"executed_at" yaml:"executed_at"`
	ExecutedBy         string      `json:"executed_by" yaml:"executed_by"`
	DryRun             bool        `json:"dry_run" yaml:"dry_run"`
	DurationSeconds    float64     `json:"duration_seconds" yaml:"duration_seconds"`
	RunbookFingerprint string      `json:"runbook_fingerprint,omitempty" yaml:"runbook_fingerprint,omitempty"`
}

// DangerousCommand is a command the classifier blocked during validation.
type DangerousCommand struct {
	Step         int    `json:"step" yaml:"step"`
	CommandIndex int    `json:"command_index" yaml:"command_index"`
	Command      string `json:"command" yaml:"command"`
	Reason       string `json:"reason" yaml:"reason"`
	Rule         string `json:"rule" yaml:"rule"`
}

// ValidationResult separates blocking issues from advisory warnings. Warnings
// never affect IsValid.
type ValidationResult struct {
	IsValid           bool               `json:"is_valid" yaml:"is_valid"`
	Issues            []string           `json:"issues" yaml:"issues"`
	Warnings          []string           `json:"warnings" yaml:"warnings"`
	DangerousCommands []DangerousCommand `json:"dangerous_commands" yaml:"dangerous_commands"`
}
