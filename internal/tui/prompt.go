package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/runbook"
)

// ValidateConfirmation accepts only the exact confirmation token.
func ValidateConfirmation(s string) error {
	if s != errors.ConfirmationToken {
		return fmt.Errorf("type %s to confirm", errors.ConfirmationToken)
	}
	return nil
}

// PromptForConfirmation asks the operator to type the confirmation token
// before a high-risk command is sent. An aborted prompt returns the
// approval-required error the server would have raised.
func PromptForConfirmation(cmd runbook.Command) (string, error) {
	var token string

	input := huh.NewInput().
		Title(fmt.Sprintf("High-risk command. Type %s to continue", errors.ConfirmationToken)).
		Description(cmd.Command).
		Placeholder(errors.ConfirmationToken).
		Validate(ValidateConfirmation).
		Value(&token)

	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", errors.NewApprovalRequiredError(cmd.Command)
	}
	return token, nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	for _, envVar := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"} {
		if os.Getenv(envVar) != "" {
			return false
		}
	}
	return IsInteractive()
}
