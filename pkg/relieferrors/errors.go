// Package relieferrors defines the coded error taxonomy shared by all domain
// services. Services construct these at the point of failure; the HTTP layer
// translates codes into status responses. Infrastructure layers (stores) may
// return sentinel errors instead and let services wrap them with a code.
package relieferrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure. Every state-changing operation fails with exactly
// one code and leaves no partial state behind.
type Code string

const (
	// CodeUnauthorized means a capability check failed (ADMIN/ORGANIZER/...).
	CodeUnauthorized Code = "unauthorized"
	// CodePaused means the operation is blocked by a pause flag.
	CodePaused Code = "paused"
	// CodeInvalidInput covers empty, zero, or malformed arguments.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound covers unknown campaign/disaster/user/record ids.
	CodeNotFound Code = "not_found"
	// CodePreconditionFailed covers time-window, status, solvency, and
	// role-membership violations.
	CodePreconditionFailed Code = "precondition_failed"
	// CodeAlreadyExists guards duplicate registrations.
	CodeAlreadyExists Code = "already_exists"
	// CodeAlreadyInactive guards repeated deactivation.
	CodeAlreadyInactive Code = "already_inactive"
	// CodeEditLocked means campaign metadata froze on the first donation.
	CodeEditLocked Code = "edit_locked"
	// CodeReentrant means a nested donate/distribute call tripped the guard.
	CodeReentrant Code = "reentrant"
	// CodeInternal covers unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodePaused:
		return http.StatusServiceUnavailable
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodePreconditionFailed, CodeEditLocked:
		return http.StatusUnprocessableEntity
	case CodeAlreadyExists, CodeAlreadyInactive, CodeReentrant:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
