package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Tickets ───────────────────────────────────────────────────────
	ErrTicketRequired ErrCode = "TICKET_REQUIRED"
	ErrTicketInvalid  ErrCode = "TICKET_INVALID"
	ErrTicketExpired  ErrCode = "TICKET_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrSessionNotFound    ErrCode = "SESSION_NOT_FOUND"
	ErrInvalidTransition  ErrCode = "INVALID_TRANSITION"
	ErrNotAnswering       ErrCode = "NOT_ANSWERING"
	ErrNotFinished        ErrCode = "NOT_FINISHED"
	ErrQuestionOutOfRange ErrCode = "QUESTION_OUT_OF_RANGE"
	ErrSectionUnavailable ErrCode = "SECTION_UNAVAILABLE"
	ErrNoQuestions        ErrCode = "NO_QUESTIONS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Tickets ───────────────────────────────────────────────────────
	case ErrTicketRequired:
		return "A session ticket is required."
	case ErrTicketInvalid:
		return "The session ticket is invalid."
	case ErrTicketExpired:
		return "The session ticket has expired."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrSessionNotFound:
		return "No session exists with that identifier."
	case ErrInvalidTransition:
		return "That action is not available in the session's current state."
	case ErrNotAnswering:
		return "The session is not on the answering screen."
	case ErrNotFinished:
		return "The report is only available after the session has finished."
	case ErrQuestionOutOfRange:
		return "The requested question number is out of range."
	case ErrSectionUnavailable:
		return "The question section could not be loaded. Try again."
	case ErrNoQuestions:
		return "This section contains no usable questions."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
