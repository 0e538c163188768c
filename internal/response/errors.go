package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrSessionRevoked     ErrCode = "SESSION_REVOKED"

	// ─── Request ───────────────────────────────────────────────────────
	ErrValidation       ErrCode = "VALIDATION_ERROR"
	ErrMethodNotAllowed ErrCode = "METHOD_NOT_ALLOWED"
	ErrUnknownKind      ErrCode = "UNKNOWN_QUESTION_KIND"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrPersistence ErrCode = "PERSISTENCE_ERROR"
	ErrInternal    ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrSessionRevoked:
		return "Session has been logged out. Please sign in again."

	// ─── Request ───────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrMethodNotAllowed:
		return "Method not allowed."
	case ErrUnknownKind:
		return "Unknown question category."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrPersistence:
		return "Database operation failed."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
