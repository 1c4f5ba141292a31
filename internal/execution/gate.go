package execution

import (
	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/runbook"
	"github.com/abhishekK50/wardenxt/internal/safety"
)

// CheckConfirmation enforces the confirmation token for high-risk commands
// requested outside dry-run. A command is high risk when either its declared
// tier or the classifier's tier is high. Blocked verdicts pass through so the
// controller can record them as failed results.
func CheckConfirmation(cmd runbook.Command, verdict safety.Verdict, dryRun bool, confirmation string) error {
	if dryRun || !verdict.Allowed {
		return nil
	}
	if safety.Max(cmd.RiskLevel, verdict.Tier) != safety.TierHigh {
		return nil
	}
	if confirmation == errors.ConfirmationToken {
		return nil
	}
	return errors.NewApprovalRequiredError(cmd.Command)
}
