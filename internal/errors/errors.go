package errors

import (
	"net/http"
)

// Problem types of the API. Every response error carries one of these as
// its RFC 7807 type.
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeServiceDown     = "/errors/service-unavailable"
	TypeTimeout         = "/errors/timeout"
	TypePayloadTooLarge = "/errors/payload-too-large"

	TypeUnsupportedFile = "/errors/upload/unsupported-file"
	TypeNoInput         = "/errors/prediction/no-input"
	TypeInvalidData     = "/errors/data/invalid"
)

// APIError is a request failure with a fixed status, error code and
// problem type. The predefined values are shared; use WithDetails for a
// per-request copy.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Type       string
	Message    string
	Details    interface{}
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// New creates an APIError
func New(statusCode int, errorCode, problemType, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Type:       problemType,
		Message:    message,
	}
}

// WithDetails returns a copy of e carrying details.
func (e *APIError) WithDetails(details interface{}) *APIError {
	c := *e
	c.Details = details
	return &c
}

var (
	ErrInvalidRequest       = New(http.StatusBadRequest, "INVALID_REQUEST", TypeValidation, "Invalid request format")
	ErrNoFiles              = New(http.StatusBadRequest, "NO_FILES", TypeValidation, "No session files were uploaded")
	ErrTooManyFiles         = New(http.StatusBadRequest, "TOO_MANY_FILES", TypeValidation, "Too many files in one upload")
	ErrUnsupportedFile      = New(http.StatusBadRequest, "UNSUPPORTED_FILE", TypeUnsupportedFile, "Only CSV and XLSX session files are accepted")
	ErrUnsupportedMediaType = New(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", TypeValidation, "Unsupported content type")
	ErrPayloadTooLarge      = New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", TypePayloadTooLarge, "Upload exceeds the size limit")
	ErrRateLimitExceeded    = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", TypeRateLimit, "Rate limit exceeded")
	ErrModelsUnavailable    = New(http.StatusServiceUnavailable, "MODELS_UNAVAILABLE", TypeServiceDown, "Instant classifier is not loaded")
)

// InvalidRequestWithError is ErrInvalidRequest detailed with err.
func InvalidRequestWithError(err error) *APIError {
	return ErrInvalidRequest.WithDetails(err.Error())
}

// UnsupportedFileError names the rejected upload.
func UnsupportedFileError(name string) *APIError {
	return ErrUnsupportedFile.WithDetails(name)
}
