// Package exitcode maps CLI failures to stable process exit codes.
package exitcode

import (
	stderrors "errors"
	"net"
	"os"
	"strings"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage or a rejected request
	UsageError = 2

	// SafetyRejection indicates a blocked command or a missing confirmation
	SafetyRejection = 3

	// ValidationFailed indicates a runbook or incident failed validation
	ValidationFailed = 4

	// AuthError indicates the provider rejected its credentials
	AuthError = 5

	// NetworkError indicates the server or provider could not be reached in time
	NetworkError = 6

	// NotFound indicates an unknown incident, runbook, step or command
	NotFound = 7

	// Interrupted indicates the operator cancelled the run (128 + SIGINT)
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// DetermineExitCode derives the exit code from the error kind, falling back to
// cobra's usage messages for errors raised before a command runs.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch errors.CodeOf(err) {
	case errors.ErrCodeProviderAuth, errors.ErrCodeProviderNotConfigured:
		return AuthError
	case errors.ErrCodeProviderTimeout, errors.ErrCodeProviderRateLimit:
		return NetworkError
	}

	switch errors.KindOf(err) {
	case errors.KindSafetyRejection, errors.KindApprovalRequired:
		return SafetyRejection
	case errors.KindValidationFailure:
		return ValidationFailed
	case errors.KindNotFound:
		return NotFound
	case errors.KindInvalidRequest:
		return UsageError
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return NetworkError
	}

	msg := strings.ToLower(err.Error())
	for _, usage := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "required flag", "accepts ", "requires at least", "invalid argument"} {
		if strings.Contains(msg, usage) {
			return UsageError
		}
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or request)"
	case SafetyRejection:
		return "Command blocked or confirmation required"
	case ValidationFailed:
		return "Validation failed"
	case AuthError:
		return "Provider authentication error"
	case NetworkError:
		return "Network error"
	case NotFound:
		return "Not found"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
