// Package errors defines formify's structured error type, its constructors
// and error codes, and hint-carrying errors for the CLI.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// FormifyError is a structured error type with context.
type FormifyError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Field       string
	Recoverable bool
}

// Error implements the error interface.
func (e *FormifyError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Field != "" {
		parts = append(parts, "field:"+e.Field)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *FormifyError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *FormifyError) Is(target error) bool {
	var t *FormifyError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *FormifyError) WithContext(key string, value interface{}) *FormifyError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithField records which form field the error concerns.
func (e *FormifyError) WithField(field string) *FormifyError {
	e.Field = field

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *FormifyError {
	return &FormifyError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *FormifyError {
	return &FormifyError{
		Type:        ErrorTypeSecurity,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewNetworkError creates a network error. Network errors leave the widget
// interactive, so they are recoverable.
func NewNetworkError(code, message string, cause error) *FormifyError {
	return &FormifyError{
		Type:        ErrorTypeNetwork,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *FormifyError {
	return &FormifyError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *FormifyError {
	return &FormifyError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var fe *FormifyError
	if errors.As(err, &fe) {
		return fe.Recoverable
	}

	return false
}

// IsValidationError checks if an error is a validation failure.
func IsValidationError(err error) bool {
	var fe *FormifyError
	if errors.As(err, &fe) {
		return fe.Type == ErrorTypeValidation
	}

	return false
}

// IsNetworkError checks if an error came from the submission transport.
func IsNetworkError(err error) bool {
	var fe *FormifyError
	if errors.As(err, &fe) {
		return fe.Type == ErrorTypeNetwork
	}

	return false
}

// CodeOf returns the code of the outermost FormifyError in err's chain.
func CodeOf(err error) string {
	var fe *FormifyError
	if errors.As(err, &fe) {
		return fe.Code
	}

	return ""
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level matching its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var fe *FormifyError
	if !errors.As(err, &fe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch fe.Type {
	case ErrorTypeValidation:
		h.logger.Warn(ctx, err, "Validation error occurred",
			"type", fe.Type,
			"code", fe.Code,
			"field", fe.Field)
	case ErrorTypeNetwork:
		h.logger.Warn(ctx, err, "Submission error occurred",
			"type", fe.Type,
			"code", fe.Code)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", fe.Type,
			"code", fe.Code)
	}
}

// Common error codes.
const (
	ErrCodeUnknownField     = "ERR_UNKNOWN_FIELD"
	ErrCodeDuplicateField   = "ERR_DUPLICATE_FIELD"
	ErrCodeNoFields         = "ERR_NO_FIELDS"
	ErrCodeEmptyField       = "ERR_EMPTY_FIELD"
	ErrCodeInvalidEmail     = "ERR_INVALID_EMAIL"
	ErrCodeSubmitFailed     = "ERR_SUBMIT_FAILED"
	ErrCodeSubmitBusy       = "ERR_SUBMIT_BUSY"
	ErrCodeInvalidURL       = "ERR_INVALID_URL"
	ErrCodeInvalidOrigin    = "ERR_INVALID_ORIGIN"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeSessionNotFound  = "ERR_SESSION_NOT_FOUND"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
)

// Helper functions for common errors

// ErrUnknownField reports a field name outside the closed enumeration.
// suggestion may be empty.
func ErrUnknownField(name, suggestion string) *FormifyError {
	msg := fmt.Sprintf("unknown field %q", name)
	if suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return NewValidationError(ErrCodeUnknownField, msg).WithField(name)
}

// ErrDuplicateField reports a field listed twice in a field set.
func ErrDuplicateField(name string) *FormifyError {
	return NewValidationError(ErrCodeDuplicateField, "duplicate field").WithField(name)
}

// ErrEmptyField reports a field left blank on submit.
func ErrEmptyField(name string) *FormifyError {
	return NewValidationError(ErrCodeEmptyField, "field is empty").WithField(name)
}

// ErrInvalidEmail reports an email value that fails the shape check.
func ErrInvalidEmail(value string) *FormifyError {
	return NewValidationError(ErrCodeInvalidEmail, "invalid email address").
		WithField("email").
		WithContext("value", value)
}

// ErrSubmitFailed wraps a transport or decoding failure.
func ErrSubmitFailed(url string, cause error) *FormifyError {
	return NewNetworkError(ErrCodeSubmitFailed, "submission failed", cause).
		WithContext("url", url)
}

// ErrInvalidURL reports an unusable submission or origin URL.
func ErrInvalidURL(url string, cause error) *FormifyError {
	e := NewValidationError(ErrCodeInvalidURL, "invalid url: "+url)
	e.Cause = cause
	return e
}

// ErrInvalidOrigin creates an invalid origin security error.
func ErrInvalidOrigin(origin string) *FormifyError {
	return NewSecurityError(ErrCodeInvalidOrigin, "invalid origin: "+origin)
}
