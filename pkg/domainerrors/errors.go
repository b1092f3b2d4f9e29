// Package domainerrors defines coded errors for expected business outcomes.
//
// Admission decisions that go against the caller (full event, passed deadline)
// are results, not faults: services return them as coded errors so handlers can
// map them to HTTP statuses without string matching, and callers know they are
// not retryable. Infrastructure failures use pkg/platform/sentinel instead and
// are translated at the service boundary.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies an error for transport mapping and caller retry decisions.
type Code string

const (
	// Business outcomes of admission control. Callers surface these to the
	// end user; retrying without a state change will produce the same answer.
	CodeDeadlinePassed    Code = "DEADLINE_PASSED"
	CodeEventFull         Code = "EVENT_FULL"
	CodeAlreadyRegistered Code = "ALREADY_REGISTERED"
	CodeNotRegistered     Code = "NOT_REGISTERED"
	CodeEventStarted      Code = "EVENT_STARTED"

	// Request/resource errors.
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeRateLimited  Code = "RATE_LIMITED"

	// Infrastructure errors. These are the only retryable codes.
	CodeUnavailable Code = "UNAVAILABLE"
	CodeInternal    Code = "INTERNAL"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error that preserves the underlying cause for
// errors.Is/As chains and logging.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is reports whether err carries the given code.
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

// Retryable reports whether the caller may retry the whole operation.
// Register is idempotent (duplicate submissions resolve to ALREADY_REGISTERED),
// so retrying on infrastructure errors is always safe.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeUnavailable, CodeRateLimited:
		return true
	}
	return false
}

// ToHTTPStatus maps a code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeDeadlinePassed, CodeEventFull, CodeAlreadyRegistered,
		CodeNotRegistered, CodeEventStarted:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
