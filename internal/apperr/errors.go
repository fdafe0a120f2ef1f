// Package apperr provides the coded domain error used across services and
// its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeInternal represents an unclassified infrastructure failure.
	CodeInternal Code = "INTERNAL"
	// CodeValidation marks malformed or missing request fields.
	CodeValidation Code = "VALIDATION"
	// CodeUnauthenticated marks a missing, invalid or expired credential.
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodeForbidden marks a valid identity lacking the required permission.
	CodeForbidden Code = "FORBIDDEN"
	// CodeNotFound marks an unresolvable resource id.
	CodeNotFound Code = "NOT_FOUND"
	// CodeConflict marks a uniqueness violation such as a taken username.
	CodeConflict Code = "CONFLICT"
	// CodeRateLimited marks an exhausted request quota.
	CodeRateLimited Code = "RATE_LIMITED"
)

// HTTPStatus returns the response status for the code.
// Conflicts are reported as 400 to match the registration contract.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeConflict:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Client-safe message
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels usable with errors.Is.
var (
	ErrNotFound        = New(CodeNotFound, "not found")
	ErrUnauthenticated = New(CodeUnauthenticated, "could not validate credentials")
	ErrForbidden       = New(CodeForbidden, "not enough permissions")
	ErrConflict        = New(CodeConflict, "conflict")
)

// Validation is shorthand for a CodeValidation error.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// NotFound is shorthand for a CodeNotFound error.
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// PublicMessage returns the message safe to send to clients.
// Unclassified errors never expose their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != CodeInternal {
		return e.Message
	}
	return "internal server error"
}
