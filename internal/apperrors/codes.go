package apperrors

type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeNotFound          Code = "NOT_FOUND"
	CodeBlocked           Code = "BLOCKED"
	CodeInvalidAmount     Code = "INVALID_AMOUNT"
	CodeInvalidExpiry     Code = "INVALID_EXPIRY"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeStoreUnavailable  Code = "STORE_UNAVAILABLE"
	CodeInternal          Code = "INTERNAL"
)
