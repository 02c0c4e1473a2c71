package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden   ErrCode = "FORBIDDEN"
	ErrNotEnrolled ErrCode = "NOT_ENROLLED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidAnswer  ErrCode = "INVALID_ANSWER"
	ErrInvalidOptions ErrCode = "INVALID_OPTIONS"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Questionnaire lifecycle ───────────────────────────────────────
	ErrIllegalTransition         ErrCode = "ILLEGAL_TRANSITION"
	ErrQuestionnaireNotDraft     ErrCode = "QUESTIONNAIRE_NOT_DRAFT"
	ErrQuestionnaireNotPublished ErrCode = "QUESTIONNAIRE_NOT_PUBLISHED"
	ErrDeadlinePassed            ErrCode = "DEADLINE_PASSED"

	// ─── Responses ─────────────────────────────────────────────────────
	ErrDuplicateResponse     ErrCode = "DUPLICATE_RESPONSE"
	ErrQuestionConfigInvalid ErrCode = "QUESTION_CONFIG_INVALID"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You are not allowed to access this resource."
	case ErrNotEnrolled:
		return "You are not enrolled in the course of this questionnaire."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "The submitted data is invalid."
	case ErrInvalidID:
		return "The identifier in the path is malformed."
	case ErrInvalidPayload:
		return "The request body could not be parsed."
	case ErrInvalidAnswer:
		return "The answer does not match the question type or its options."
	case ErrInvalidOptions:
		return "A choice question needs at least two distinct, non-empty options; boolean needs exactly two."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrDependencyExists:
		return "The resource is still referenced by other records."

	// ─── Questionnaire lifecycle ───────────────────────────────────────
	case ErrIllegalTransition:
		return "This status change is not allowed."
	case ErrQuestionnaireNotDraft:
		return "Only draft questionnaires can be edited."
	case ErrQuestionnaireNotPublished:
		return "The questionnaire is not open for responses."
	case ErrDeadlinePassed:
		return "The questionnaire deadline has passed."

	// ─── Responses ─────────────────────────────────────────────────────
	case ErrDuplicateResponse:
		return "This question has already been answered."
	case ErrQuestionConfigInvalid:
		return "The question is misconfigured. Please contact an administrator."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please slow down."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal error occurred."

	default:
		return "An unexpected error occurred."
	}
}
