package runbook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/safety"
)

// Raw is the loosely typed runbook document returned by the text generator.
// Pointer fields distinguish "absent" from zero values so defaults apply.
type Raw struct {
	Steps         []RawStep `json:"steps"`
	Warnings      []string  `json:"warnings"`
	Prerequisites []string  `json:"prerequisites"`
}

// RawStep is one generated step.
type RawStep struct {
	StepNumber        *int         `json:"step_number"`
	Category          *string      `json:"category"`
	Title             *string      `json:"title"`
	Commands          []RawCommand `json:"commands"`
	PrerequisiteSteps []int        `json:"prerequisite_steps"`
	EstimatedDuration *string      `json:"estimated_duration"`
}

// RawCommand is one generated command.
type RawCommand struct {
	Command          string  `json:"command"`
	Description      string  `json:"description"`
	RiskLevel        *string `json:"risk_level"`
	ExpectedOutput   *string `json:"expected_output"`
	TimeoutSeconds   *int    `json:"timeout_seconds"`
	RequiresApproval *bool   `json:"requires_approval"`
}

// Meta carries the incident fields stamped onto a built runbook.
type Meta struct {
	IncidentID   string
	IncidentType string
	Severity     string
	GeneratedAt  time.Time
}

// Parse extracts the runbook JSON object from generated text and decodes it.
func Parse(text string) (Raw, error) {
	data, err := ExtractJSON(text)
	if err != nil {
		return Raw{}, err
	}

	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return Raw{}, errors.NewRunbookUnparsableError(err)
	}
	return raw, nil
}

// Build maps raw generated data into a Runbook. Steps beyond maxSteps are
// dropped; maxSteps <= 0 means DefaultMaxSteps. A step without a commands
// list fails the whole build, and every such step is reported.
func Build(meta Meta, raw Raw, maxSteps int) (*Runbook, error) {
	if len(raw.Steps) == 0 {
		return nil, errors.NewRunbookInvalidError("no steps found in generated runbook")
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	rawSteps := raw.Steps
	if len(rawSteps) > maxSteps {
		rawSteps = rawSteps[:maxSteps]
	}

	var problems []string
	steps := make([]Step, 0, len(rawSteps))
	for i, rs := range rawSteps {
		position := i + 1
		if rs.Commands == nil {
			problems = append(problems, fmt.Sprintf("step at position %d has no commands list", position))
			continue
		}
		steps = append(steps, buildStep(position, rs))
	}
	if len(problems) > 0 {
		return nil, errors.NewRunbookInvalidError(strings.Join(problems, "; "))
	}

	generatedAt := meta.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	return &Runbook{
		IncidentID:         meta.IncidentID,
		GeneratedAt:        generatedAt,
		IncidentType:       meta.IncidentType,
		Severity:           meta.Severity,
		Steps:              steps,
		TotalSteps:         len(steps),
		EstimatedTotalTime: FormatDuration(TotalDuration(steps)),
		Warnings:           nonNil(raw.Warnings),
		Prerequisites:      nonNil(raw.Prerequisites),
	}, nil
}

func buildStep(position int, rs RawStep) Step {
	step := Step{
		StepNumber:        position,
		Category:          CategoryRemediation,
		Title:             fmt.Sprintf("Step %d", position),
		PrerequisiteSteps: append([]int{}, rs.PrerequisiteSteps...),
		EstimatedDuration: DefaultStepDuration,
		Commands:          make([]Command, 0, len(rs.Commands)),
	}
	if rs.StepNumber != nil {
		step.StepNumber = *rs.StepNumber
	}
	if rs.Category != nil {
		step.Category = Category(strings.ToLower(strings.TrimSpace(*rs.Category)))
	}
	if rs.Title != nil {
		step.Title = *rs.Title
	}
	if rs.EstimatedDuration != nil {
		step.EstimatedDuration = *rs.EstimatedDuration
	}

	for _, rc := range rs.Commands {
		cmd := Command{
			Command:          rc.Command,
			Description:      rc.Description,
			RiskLevel:        safety.TierMedium,
			TimeoutSeconds:   DefaultTimeoutSeconds,
			RequiresApproval: true,
		}
		if rc.RiskLevel != nil {
			cmd.RiskLevel = safety.Tier(strings.ToLower(strings.TrimSpace(*rc.RiskLevel)))
		}
		if rc.ExpectedOutput != nil {
			cmd.ExpectedOutput = *rc.ExpectedOutput
		}
		if rc.TimeoutSeconds != nil {
			cmd.TimeoutSeconds = *rc.TimeoutSeconds
		}
		if rc.RequiresApproval != nil {
			cmd.RequiresApproval = *rc.RequiresApproval
		}
		step.Commands = append(step.Commands, cmd)
	}

	return step
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}
