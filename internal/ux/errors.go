package ux

import (
	"fmt"
	"strings"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a recovery suggestion to errors that carry none.
// WardenErrors with suggestions already print them and pass through.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}
	if we, ok := errors.As(err); ok && len(we.Suggestions) > 0 {
		return err
	}

	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "connection refused"), strings.Contains(errMsg, "could not reach"):
		return NewErrorWithSuggestion(err,
			"Start the server with 'wardenxt serve' or point --server at a running instance")
	case strings.Contains(errMsg, "no such file or directory") && strings.Contains(errMsg, "policy"):
		return NewErrorWithSuggestion(err,
			"Check safety.policy_file in wardenxt.yaml or unset it to use the built-in rules")
	case strings.Contains(errMsg, "no such file or directory"):
		return NewErrorWithSuggestion(err,
			"Check the path and that incidents.dir points at the incident data directory")
	case strings.Contains(errMsg, "permission denied"):
		return NewErrorWithSuggestion(err,
			"Check file permissions and ensure you have access to the required files/directories")
	}

	switch errors.KindOf(err) {
	case errors.KindNotFound:
		return NewErrorWithSuggestion(err, "Run 'wardenxt runbook list' to see cached runbooks")
	case errors.KindApprovalRequired:
		return NewErrorWithSuggestion(err,
			fmt.Sprintf("Re-run with --confirm %s once the command has been reviewed", errors.ConfirmationToken))
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
