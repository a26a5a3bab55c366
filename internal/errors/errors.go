// Package errors defines the structured error taxonomy for the dialectic
// job-processing core. Components never let failures cross their boundary
// untyped: everything that can fail a job is classified by an ErrorCode so
// the executing layer can decide whether the failure is retryable.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found (no root chunk, no template).
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates a malformed or missing payload field. Fatal, never retried.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeConflict indicates a conflict with existing data (unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeContextWindow indicates the prompt exceeds the model's context
	// window even after compression. Fatal, never retried by this core.
	ErrCodeContextWindow ErrorCode = "context_window"
	// ErrCodePersistence indicates a database or storage call failed. The
	// caller's retry policy decides what to do with it.
	ErrCodePersistence ErrorCode = "persistence"
	// ErrCodeContinuation indicates a safe continuation payload could not be
	// constructed. The triggering job's own success is unaffected.
	ErrCodeContinuation ErrorCode = "continuation"
	// ErrCodeInternal indicates an unclassified internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError is a structured application error with a code, message, and
// optional cause. It supports errors.Is and errors.As through Unwrap.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific payload field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationField creates a new Validation error for a specific payload field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// ContextWindow creates a new ContextWindow error.
func ContextWindow(message string) *AppError {
	return &AppError{Code: ErrCodeContextWindow, Message: message}
}

// ContextWindowf creates a new ContextWindow error with formatted message.
func ContextWindowf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeContextWindow, Message: fmt.Sprintf(format, args...)}
}

// Persistence creates a new Persistence error.
func Persistence(message string) *AppError {
	return &AppError{Code: ErrCodePersistence, Message: message}
}

// Continuation creates a new Continuation error.
func Continuation(message string) *AppError {
	return &AppError{Code: ErrCodeContinuation, Message: message}
}

// Continuationf creates a new Continuation error with formatted message.
func Continuationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeContinuation, Message: fmt.Sprintf(format, args...)}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsAppError checks if an error is an AppError with the given code.
func IsAppError(err error, code ErrorCode) bool {
	return isCode(err, code)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsContextWindow checks if an error is a ContextWindow error.
func IsContextWindow(err error) bool {
	return isCode(err, ErrCodeContextWindow)
}

// IsPersistence checks if an error is a Persistence error.
func IsPersistence(err error) bool {
	return isCode(err, ErrCodePersistence)
}

// IsContinuation checks if an error is a Continuation error.
func IsContinuation(err error) bool {
	return isCode(err, ErrCodeContinuation)
}

// IsRetryable reports whether the caller's retry policy may retry the
// failure. Validation, not-found, and context-window failures are
// deterministic given their inputs and are never retried.
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case ErrCodeValidation, ErrCodeNotFound, ErrCodeContextWindow, ErrCodeContinuation, ErrCodeConflict:
		return false
	default:
		return true
	}
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
