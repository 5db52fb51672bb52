package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies an import failure
type ErrorType string

const (
	ErrTypeUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"
	ErrTypeUnresolvableKey   ErrorType = "UNRESOLVABLE_KEY"
	ErrTypeMalformedLog      ErrorType = "MALFORMED_LOG"
	ErrTypeNonNumericValue   ErrorType = "NON_NUMERIC_VALUE"
	ErrTypeMalformedFilename ErrorType = "MALFORMED_FILENAME"
	ErrTypeStorage           ErrorType = "STORAGE"
	ErrTypeValidation        ErrorType = "VALIDATION"
	ErrTypeConfig            ErrorType = "CONFIG"
)

// Sentinels for errors.Is. Any *AppError of the same Type matches.
var (
	ErrUnsupportedFormat = &AppError{Type: ErrTypeUnsupportedFormat, Message: "unsupported format"}
	ErrUnresolvableKey   = &AppError{Type: ErrTypeUnresolvableKey, Message: "unresolvable key"}
	ErrMalformedLog      = &AppError{Type: ErrTypeMalformedLog, Message: "malformed log"}
	ErrNonNumericValue   = &AppError{Type: ErrTypeNonNumericValue, Message: "non-numeric value"}
	ErrMalformedFilename = &AppError{Type: ErrTypeMalformedFilename, Message: "malformed filename"}
	ErrStorage           = &AppError{Type: ErrTypeStorage, Message: "storage error"}
	ErrValidation        = &AppError{Type: ErrTypeValidation, Message: "validation failed"}
	ErrConfig            = &AppError{Type: ErrTypeConfig, Message: "configuration error"}
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

// Is reports whether target is an AppError of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
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

// NewUnsupportedFormatError creates an error for a file extension no reader handles
func NewUnsupportedFormatError(path, ext string) *AppError {
	return NewAppError(ErrTypeUnsupportedFormat,
		fmt.Sprintf("file %q must be a .xlsx or .xlsm file, got %q", path, ext), nil).
		WithContext("path", path)
}

// NewUnresolvableKeyError creates an error for a key the measurement cannot map
func NewUnresolvableKeyError(key string) *AppError {
	return NewAppError(ErrTypeUnresolvableKey, fmt.Sprintf("%s is not a valid parameter", key), nil).
		WithContext("key", key)
}

// NewMalformedLogError creates a fit log parsing error
func NewMalformedLogError(message string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedLog, message, cause)
}

// NewNonNumericValueError creates an error for a fit log value that is not a float
func NewNonNumericValueError(line string, cause error) *AppError {
	return NewAppError(ErrTypeNonNumericValue, fmt.Sprintf("value in line %q is not numeric", line), cause).
		WithContext("line", line)
}

// NewMalformedFilenameError creates a filename decoding error
func NewMalformedFilenameError(name, reason string) *AppError {
	return NewAppError(ErrTypeMalformedFilename, fmt.Sprintf("%s: %s", name, reason), nil).
		WithContext("filename", name)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in the chain, or "" if none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
