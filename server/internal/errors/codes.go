package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a specific error type for scheduling operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the goal or schedule does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeCalendarUnavailable indicates every busy source failed.
	ErrCodeCalendarUnavailable ErrorCode = "CALENDAR_UNAVAILABLE"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeInternal is anything else.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

var httpStatus = map[ErrorCode]int{
	ErrCodeInvalidArgument:     http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeCalendarUnavailable: http.StatusBadGateway,
	ErrCodeRateLimitExceeded:   http.StatusTooManyRequests,
	ErrCodeTimeout:             http.StatusGatewayTimeout,
	ErrCodeContextCanceled:     499,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// HTTPStatus maps a code to its HTTP status. Unknown codes are 500.
func HTTPStatus(code ErrorCode) int {
	if status, ok := httpStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// SchedulingError represents a structured error for scheduling operations.
type SchedulingError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *SchedulingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *SchedulingError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *SchedulingError) WithContext(key string, value any) *SchedulingError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *SchedulingError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// InvalidArgument creates an invalid argument error.
func InvalidArgument(format string, args ...any) *SchedulingError {
	return &SchedulingError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(kind, id string) *SchedulingError {
	return &SchedulingError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", kind, id),
	}
}

// CalendarUnavailable creates a calendar unavailable error.
func CalendarUnavailable(cause error) *SchedulingError {
	return &SchedulingError{Code: ErrCodeCalendarUnavailable, Message: "busy calendar unavailable", Cause: cause}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *SchedulingError {
	return &SchedulingError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *SchedulingError {
	return &SchedulingError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *SchedulingError {
	return &SchedulingError{Code: ErrCodeTimeout, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *SchedulingError {
	return &SchedulingError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *SchedulingError {
	return &SchedulingError{Code: code, Message: msg, Cause: cause}
}

// FromContextError converts a context error into a coded error. Other errors
// are returned unchanged.
func FromContextError(err error) error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return &SchedulingError{Code: ErrCodeTimeout, Message: "operation timed out", Cause: err}
	case stderrors.Is(err, context.Canceled):
		return ContextCanceled(err)
	default:
		return err
	}
}

// IsCode checks if an error chain carries a specific code.
func IsCode(err error, code ErrorCode) bool {
	var se *SchedulingError
	if stderrors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a SchedulingError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var se *SchedulingError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return defaultCode
}
