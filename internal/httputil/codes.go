package httputil

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodePasswordMismatch   = "PASSWORD_MISMATCH"
	CodeAlreadyRegistered  = "EMAIL_OR_USERNAME_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	CodeInternalError      = "INTERNAL_ERROR"

	CodeMissingAuth       = "MISSING_AUTH"
	CodeInvalidAuthHeader = "INVALID_AUTH_HEADER"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeTokenRevoked      = "TOKEN_REVOKED"
	CodeUserNotFound      = "USER_NOT_FOUND"

	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeInvalidUpload    = "INVALID_UPLOAD"
)
