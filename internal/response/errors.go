package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidIndex   ErrCode = "INVALID_INDEX"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrNoActiveExam ErrCode = "NO_ACTIVE_EXAM"
	ErrNotStarted   ErrCode = "EXAM_NOT_STARTED"
	ErrNotSubmitted ErrCode = "EXAM_NOT_SUBMITTED"
	ErrNoQuestions  ErrCode = "NO_QUESTIONS"

	// ─── Question bank ─────────────────────────────────────────────────
	ErrBankUnavailable ErrCode = "BANK_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidIndex:
		return "Question or option index is out of range."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	case ErrNoActiveExam:
		return "No exam is in progress. Start one first."
	case ErrNotStarted:
		return "The exam has not started yet."
	case ErrNotSubmitted:
		return "The exam has not been submitted yet."
	case ErrNoQuestions:
		return "No questions available with the selected criteria."

	// ─── Question bank ─────────────────────────────────────────────────
	case ErrBankUnavailable:
		return "Error loading questions. Please check that the question bank is available and valid."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
