package runbook

import (
	"fmt"
	"strings"

	"github.com/abhishekK50/wardenxt/internal/safety"
)

// Validator checks a runbook against the safety classifier and the
// structural rules for steps and prerequisites.
type Validator struct {
	classifier *safety.Classifier
}

// NewValidator returns a validator using c, or the default classifier when
// c is nil.
func NewValidator(c *safety.Classifier) *Validator {
	if c == nil {
		c = safety.Default()
	}
	return &Validator{classifier: c}
}

// Validate runs the default validator.
func Validate(rb *Runbook) ValidationResult {
	return NewValidator(nil).Validate(rb)
}

// Validate re-classifies every command and checks prerequisites. Blocked and
// empty commands are issues; everything else found is a warning.
func (v *Validator) Validate(rb *Runbook) ValidationResult {
	res := ValidationResult{
		Issues:            []string{},
		Warnings:          []string{},
		DangerousCommands: []DangerousCommand{},
	}

	seen := make(map[int]int, len(rb.Steps))
	for _, step := range rb.Steps {
		seen[step.StepNumber]++
		if seen[step.StepNumber] == 2 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Step %d appears more than once", step.StepNumber))
		}
		if step.Category != "" && !step.Category.Valid() {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Step %d has unknown category %q", step.StepNumber, step.Category))
		}

		for i, cmd := range step.Commands {
			v.checkCommand(&res, step.StepNumber, i, cmd)
		}
	}

	for _, step := range rb.Steps {
		for _, prereq := range step.PrerequisiteSteps {
			switch {
			case seen[prereq] == 0:
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("Step %d references non-existent prerequisite step %d", step.StepNumber, prereq))
			case prereq >= step.StepNumber:
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("Step %d has invalid prerequisite %d (prerequisite must come before current step)", step.StepNumber, prereq))
			}
		}
	}

	res.IsValid = len(res.Issues) == 0
	return res
}

func (v *Validator) checkCommand(res *ValidationResult, step, index int, cmd Command) {
	if strings.TrimSpace(cmd.Command) == "" {
		res.Issues = append(res.Issues, fmt.Sprintf("Step %d: Empty command found", step))
		return
	}

	verdict := v.classifier.Classify(cmd.Command)
	if !verdict.Allowed {
		res.Issues = append(res.Issues, fmt.Sprintf("Step %d, Command %d: %s", step, index+1, verdict.Reason))
		res.DangerousCommands = append(res.DangerousCommands, DangerousCommand{
			Step:         step,
			CommandIndex: index,
			Command:      cmd.Command,
			Reason:       verdict.Reason,
			Rule:         verdict.Rule,
		})
		return
	}

	if cmd.RiskLevel != "" && !cmd.RiskLevel.Valid() {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("Step %d, Command %d: unknown risk level %q", step, index+1, cmd.RiskLevel))
	}
	if safety.Max(cmd.RiskLevel, verdict.Tier) == safety.TierHigh && !cmd.RequiresApproval {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Step %d: High-risk command should require approval", step))
	}
	if cmd.RiskLevel.Valid() && verdict.Tier == safety.TierHigh && cmd.RiskLevel != safety.TierHigh {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("Step %d, Command %d: declared risk %s but classified %s", step, index+1, cmd.RiskLevel, verdict.Tier))
	}
}
