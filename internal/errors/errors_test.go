package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeRunbookNotFound, "test error message")

	if err.Code != ErrCodeRunbookNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeRunbookNotFound, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeFileReadFailed, "failed to read file", cause)

	if err.Code != ErrCodeFileReadFailed {
		t.Errorf("expected code %s, got %s", ErrCodeFileReadFailed, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *WardenError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeRunbookInvalid, "invalid runbook"),
			wantCode: "RUNBOOK-004",
			wantMsg:  "invalid runbook",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeFileReadFailed, "read failed", fmt.Errorf("permission denied")),
			wantCode: "IO-002",
			wantMsg:  "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestions(t *testing.T) {
	err := New(ErrCodeCommandBlocked, "blocked").
		WithSuggestion("first").
		WithSuggestions("second", "third").
		WithDocs("https://example.com/docs")

	if len(err.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	for _, want := range []string{"Suggestions:", "first", "third", "Documentation: https://example.com/docs"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error string should contain %q, got: %s", want, errStr)
		}
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewRunbookNotFoundError("INC-1"))

	if !errors.Is(err, New(ErrCodeRunbookNotFound, "")) {
		t.Error("expected errors.Is to match on code")
	}
	if errors.Is(err, New(ErrCodeStepNotFound, "")) {
		t.Error("expected errors.Is not to match a different code")
	}
	if CodeOf(err) != ErrCodeRunbookNotFound {
		t.Errorf("CodeOf = %s, want %s", CodeOf(err), ErrCodeRunbookNotFound)
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("CodeOf should be empty for plain errors")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"incident", NewIncidentNotFoundError("INC-1"), KindNotFound},
		{"runbook", NewRunbookNotFoundError("INC-1"), KindNotFound},
		{"step", NewStepNotFoundError("INC-1", 4), KindNotFound},
		{"command index", NewCommandNotFoundError(1, 9, 2), KindNotFound},
		{"invalid runbook", NewRunbookInvalidError("step 1 has no commands"), KindValidationFailure},
		{"unparsable", NewRunbookUnparsableError(fmt.Errorf("eof")), KindValidationFailure},
		{"blocked", NewCommandBlockedError("rm -rf /", "recursive delete"), KindSafetyRejection},
		{"approval", NewApprovalRequiredError("kubectl delete ns prod"), KindApprovalRequired},
		{"request", NewInvalidRequestError("focus_area"), KindInvalidRequest},
		{"wrapped", fmt.Errorf("ctx: %w", NewApprovalRequiredError("x")), KindApprovalRequired},
		{"provider", New(ErrCodeProviderAPI, "boom"), KindUnexpected},
		{"plain", fmt.Errorf("boom"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApprovalErrorNamesToken(t *testing.T) {
	err := NewApprovalRequiredError("kubectl delete namespace prod")

	if !strings.Contains(err.Message, "'EXECUTE'") {
		t.Errorf("approval message must state the token, got: %s", err.Message)
	}
}

func TestIsProviderError(t *testing.T) {
	if !IsProviderError(NewProviderAuthError("gemini")) {
		t.Error("expected provider auth error to be a provider error")
	}
	if IsProviderError(NewRunbookNotFoundError("x")) {
		t.Error("runbook error is not a provider error")
	}
	if !strings.Contains(NewProviderAuthError("gemini").Error(), "GEMINI_API_KEY") {
		t.Error("auth error should suggest the env var")
	}
}
