// Package errors provides standardized domain errors with codes for the admin API.
//
// Usage:
//
//	// In services - return typed errors
//	if upload.Size > limit {
//	    return errors.TooLarge("image exceeds the 8 MiB upload limit")
//	}
//
//	// At boundaries - check with errors.Is
//	if errors.Is(err, errors.ErrTimeout) {
//	    // surface the "try again" message
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidation      Code = "VALIDATION"
	CodeTooLarge        Code = "TOO_LARGE"
	CodeUnsupportedType Code = "UNSUPPORTED_TYPE"
	CodeDecodeFailed    Code = "DECODE_FAILED"
	CodeTimeout         Code = "TIMEOUT"
	CodeSubmitFailed    Code = "SUBMIT_FAILED"
	CodeBusy            Code = "BUSY"
	CodeSessionClosed   Code = "SESSION_CLOSED"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound, CodeSessionClosed:
		return http.StatusNotFound
	case CodeValidation, CodeDecodeFailed:
		return http.StatusBadRequest
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeUnsupportedType:
		return http.StatusUnsupportedMediaType
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeBusy:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrTooLarge        = &Error{Code: CodeTooLarge, Message: "file too large"}
	ErrUnsupportedType = &Error{Code: CodeUnsupportedType, Message: "unsupported file type"}
	ErrDecodeFailed    = &Error{Code: CodeDecodeFailed, Message: "image could not be read"}
	ErrTimeout         = &Error{Code: CodeTimeout, Message: "operation timed out"}
	ErrSubmitFailed    = &Error{Code: CodeSubmitFailed, Message: "save failed"}
	ErrBusy            = &Error{Code: CodeBusy, Message: "operation already in progress"}
	ErrSessionClosed   = &Error{Code: CodeSessionClosed, Message: "form session closed"}
	ErrUnauthorized    = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrRateLimited     = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// TooLarge creates a file-too-large error.
func TooLarge(msg string) *Error {
	return &Error{Code: CodeTooLarge, Message: msg}
}

// UnsupportedType creates an unsupported file type error.
func UnsupportedType(msg string) *Error {
	return &Error{Code: CodeUnsupportedType, Message: msg}
}

// DecodeFailed creates an image decode error.
func DecodeFailed(msg string) *Error {
	return &Error{Code: CodeDecodeFailed, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string) *Error {
	return &Error{Code: CodeTimeout, Message: msg}
}

// SubmitFailed creates a submit failure error.
func SubmitFailed(msg string) *Error {
	return &Error{Code: CodeSubmitFailed, Message: msg}
}

// Busy creates a busy error.
func Busy(msg string) *Error {
	return &Error{Code: CodeBusy, Message: msg}
}

// SessionClosed creates a closed-session error.
func SessionClosed(msg string) *Error {
	return &Error{Code: CodeSessionClosed, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
