package errors

import "strings"

// Kind groups error codes into the categories callers act on.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidRequest    Kind = "invalid_request"
	KindValidationFailure Kind = "validation_failure"
	KindSafetyRejection   Kind = "safety_rejection"
	KindApprovalRequired  Kind = "approval_required"
	KindUnexpected        Kind = "unexpected"
)

// KindOf classifies err. Errors without a WardenError in their chain are
// Unexpected.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	code := CodeOf(err)
	switch code {
	case ErrCodeIncidentNotFound, ErrCodeRunbookNotFound, ErrCodeStepNotFound,
		ErrCodeCommandNotFound, ErrCodeFileNotFound:
		return KindNotFound
	case ErrCodeInvalidRequest:
		return KindInvalidRequest
	case ErrCodeRunbookInvalid, ErrCodeRunbookUnparsable, ErrCodeIncidentInvalid,
		ErrCodeFileUnmarshal, ErrCodeSafetyPolicy:
		return KindValidationFailure
	case ErrCodeCommandBlocked:
		return KindSafetyRejection
	case ErrCodeApprovalRequired:
		return KindApprovalRequired
	}

	return KindUnexpected
}

// IsProviderError reports whether the error came from the text-generation
// provider.
func IsProviderError(err error) bool {
	return strings.HasPrefix(string(CodeOf(err)), "PROVIDER-")
}
