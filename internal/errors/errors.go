package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Incident errors (INCIDENT-001 to INCIDENT-099)
	ErrCodeIncidentNotFound ErrorCode = "INCIDENT-001"
	ErrCodeIncidentInvalid  ErrorCode = "INCIDENT-002"

	// Runbook errors (RUNBOOK-001 to RUNBOOK-099)
	ErrCodeRunbookNotFound   ErrorCode = "RUNBOOK-001"
	ErrCodeStepNotFound      ErrorCode = "RUNBOOK-002"
	ErrCodeCommandNotFound   ErrorCode = "RUNBOOK-003"
	ErrCodeRunbookInvalid    ErrorCode = "RUNBOOK-004"
	ErrCodeRunbookUnparsable ErrorCode = "RUNBOOK-005"

	// Safety errors (SAFETY-001 to SAFETY-099)
	ErrCodeCommandBlocked   ErrorCode = "SAFETY-001"
	ErrCodeApprovalRequired ErrorCode = "SAFETY-002"
	ErrCodeSafetyPolicy     ErrorCode = "SAFETY-003"

	// Request errors (REQUEST-001 to REQUEST-099)
	ErrCodeInvalidRequest ErrorCode = "REQUEST-001"

	// Provider errors (PROVIDER-001 to PROVIDER-099)
	ErrCodeProviderNotConfigured ErrorCode = "PROVIDER-001"
	ErrCodeProviderAuth          ErrorCode = "PROVIDER-002"
	ErrCodeProviderAPI           ErrorCode = "PROVIDER-003"
	ErrCodeProviderRateLimit     ErrorCode = "PROVIDER-004"
	ErrCodeProviderTimeout       ErrorCode = "PROVIDER-005"
	ErrCodeProviderEmpty         ErrorCode = "PROVIDER-006"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeFileUnmarshal   ErrorCode = "IO-004"
	ErrCodeFileMarshal     ErrorCode = "IO-005"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL-001"
)

// ConfirmationToken is the exact text an operator must supply to run a
// high-risk command outside of dry-run mode.
const ConfirmationToken = "EXECUTE"

const docsBase = "https://github.com/abhishekK50/wardenxt#"

// WardenError represents an enhanced error with code, suggestions, and documentation
type WardenError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *WardenError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *WardenError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a WardenError with the same code.
func (e *WardenError) Is(target error) bool {
	t, ok := target.(*WardenError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new WardenError
func New(code ErrorCode, message string) *WardenError {
	return &WardenError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new WardenError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *WardenError {
	return &WardenError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *WardenError) WithSuggestion(suggestion string) *WardenError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *WardenError) WithSuggestions(suggestions ...string) *WardenError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *WardenError) WithDocs(url string) *WardenError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first WardenError in err's chain, or an
// empty code.
func CodeOf(err error) ErrorCode {
	var we *WardenError
	if stderrors.As(err, &we) {
		return we.Code
	}
	return ""
}

// As returns the first WardenError in err's chain.
func As(err error) (*WardenError, bool) {
	var we *WardenError
	ok := stderrors.As(err, &we)
	return we, ok
}

// Common error constructors for frequently used errors

// NewIncidentNotFoundError creates an incident not found error
func NewIncidentNotFoundError(incidentID string) *WardenError {
	return New(ErrCodeIncidentNotFound, fmt.Sprintf("incident not found: %s", incidentID)).
		WithSuggestion("Run 'wardenxt incidents' to list known incidents").
		WithSuggestion("Check the configured incidents directory")
}

// NewRunbookNotFoundError creates a runbook not found error
func NewRunbookNotFoundError(incidentID string) *WardenError {
	return New(ErrCodeRunbookNotFound, fmt.Sprintf("no runbook found for incident %s", incidentID)).
		WithSuggestion(fmt.Sprintf("Run 'wardenxt runbook generate %s' to create one", incidentID)).
		WithSuggestion("Runbooks expire 60 minutes after generation")
}

// NewStepNotFoundError creates a step not found error
func NewStepNotFoundError(incidentID string, step int) *WardenError {
	return New(ErrCodeStepNotFound, fmt.Sprintf("step %d not found in runbook for incident %s", step, incidentID)).
		WithSuggestion(fmt.Sprintf("Run 'wardenxt runbook show %s' to list steps", incidentID))
}

// NewCommandNotFoundError creates a command index out of range error
func NewCommandNotFoundError(step, index, count int) *WardenError {
	return New(ErrCodeCommandNotFound, fmt.Sprintf("command index %d out of range for step %d (%d commands)", index, step, count)).
		WithSuggestion("Command indexes are zero-based")
}

// NewRunbookInvalidError creates a structural runbook error
func NewRunbookInvalidError(details string) *WardenError {
	return New(ErrCodeRunbookInvalid, fmt.Sprintf("invalid runbook: %s", details)).
		WithSuggestion("Regenerate the runbook").
		WithDocs(docsBase + "runbook-format")
}

// NewRunbookUnparsableError creates a JSON extraction error
func NewRunbookUnparsableError(cause error) *WardenError {
	return Wrap(ErrCodeRunbookUnparsable, "could not extract runbook JSON from generated text", cause).
		WithSuggestion("Retry generation; the model output did not contain a steps object")
}

// NewCommandBlockedError creates a safety rejection error. The reason names the
// matched rule.
func NewCommandBlockedError(command, reason string) *WardenError {
	return New(ErrCodeCommandBlocked, fmt.Sprintf("command blocked: %s (%s)", command, reason)).
		WithSuggestion("Blocked commands can never be executed through wardenxt").
		WithSuggestion("Run 'wardenxt rules' to review the safety rules").
		WithDocs(docsBase + "safety-rules")
}

// NewApprovalRequiredError creates the error returned when a high-risk
// command is requested outside dry-run without the confirmation token.
func NewApprovalRequiredError(command string) *WardenError {
	return New(ErrCodeApprovalRequired,
		fmt.Sprintf("high-risk command requires confirmation: type '%s' to confirm execution of %q", ConfirmationToken, command)).
		WithSuggestion(fmt.Sprintf("Set confirmation_text to exactly %q", ConfirmationToken)).
		WithSuggestion("Or rerun with dry_run=true to preview the command")
}

// NewSafetyPolicyError creates an invalid safety policy error
func NewSafetyPolicyError(details string, cause error) *WardenError {
	return Wrap(ErrCodeSafetyPolicy, fmt.Sprintf("invalid safety policy: %s", details), cause).
		WithSuggestion("Check rule patterns are valid regular expressions").
		WithSuggestion("Stages must be one of: blocklist, safe, medium, high")
}

// NewInvalidRequestError creates a request validation error
func NewInvalidRequestError(details string) *WardenError {
	return New(ErrCodeInvalidRequest, fmt.Sprintf("invalid request: %s", details))
}

// NewProviderAuthError creates a provider authentication error
func NewProviderAuthError(provider string) *WardenError {
	return New(ErrCodeProviderAuth, fmt.Sprintf("authentication failed for provider: %s", provider)).
		WithSuggestion(fmt.Sprintf("Set the %s_API_KEY environment variable", strings.ToUpper(provider))).
		WithSuggestion("Check if your API key is valid and not expired")
}

// NewProviderRateLimitError creates a rate limit error
func NewProviderRateLimitError(provider string, retryAfter string) *WardenError {
	msg := fmt.Sprintf("rate limit exceeded for provider: %s", provider)
	if retryAfter != "" {
		msg += fmt.Sprintf(" (retry after: %s)", retryAfter)
	}

	return New(ErrCodeProviderRateLimit, msg).
		WithSuggestion("Wait before retrying the request")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *WardenError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *WardenError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}

// NewInternalError wraps an unexpected failure
func NewInternalError(operation string, cause error) *WardenError {
	return Wrap(ErrCodeInternal, fmt.Sprintf("%s failed", operation), cause)
}
