package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Pipeline taxonomy
	ErrTypeDataGap               ErrorType = "DATA_GAP"
	ErrTypeTimestamp             ErrorType = "TIMESTAMP"
	ErrTypeSchema                ErrorType = "SCHEMA"
	ErrTypeClassifierUnavailable ErrorType = "CLASSIFIER_UNAVAILABLE"
	ErrTypeEntityProcessing      ErrorType = "ENTITY_PROCESSING"
	ErrTypeFatalInput            ErrorType = "FATAL_INPUT"

	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// NewDataGapError reports a feature family skipped because inputs are absent.
func NewDataGapError(family string, missing []string) *AppError {
	return NewAppError(ErrTypeDataGap, fmt.Sprintf("feature family %s skipped", family), nil).
		WithContext("family", family).
		WithContext("missing", missing)
}

// NewTimestampError reports a session time that matched no known layout.
func NewTimestampError(raw string) *AppError {
	return NewAppError(ErrTypeTimestamp, fmt.Sprintf("unparseable timestamp %q", raw), nil).
		WithContext("raw", raw)
}

// NewSchemaError reports an aligned vector that needed zero-filled columns.
func NewSchemaError(target string, missing []string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("%d columns zero-filled for %s", len(missing), target), nil).
		WithContext("target", target).
		WithContext("missing", missing)
}

// NewClassifierUnavailableError reports a horizon without a loaded classifier.
func NewClassifierUnavailableError(key string, cause error) *AppError {
	return NewAppError(ErrTypeClassifierUnavailable, fmt.Sprintf("classifier for horizon %s unavailable", key), cause).
		WithContext("horizon", key)
}

// NewEntityProcessingError wraps a failure scoped to one entity.
func NewEntityProcessingError(entity string, cause error) *AppError {
	return NewAppError(ErrTypeEntityProcessing, fmt.Sprintf("processing entity %s", entity), cause).
		WithContext("entity", entity)
}

// NewFatalInputError reports that a run had no input at all.
func NewFatalInputError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFatalInput, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
