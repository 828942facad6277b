package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Catalog sync ──────────────────────────────────────────────────
	ErrSyncInProgress      ErrCode = "SYNC_IN_PROGRESS"
	ErrUpstreamUnavailable ErrCode = "UPSTREAM_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Request payload is invalid."

	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "The catalog rejected the change because it conflicts with stored data."

	case ErrSyncInProgress:
		return "A catalog sync is already running. Try again later."
	case ErrUpstreamUnavailable:
		return "The handbook could not be fetched."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
