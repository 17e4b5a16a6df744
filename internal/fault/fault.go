// Package fault defines the caller-facing error taxonomy shared by all
// domain services. Every error that crosses the API boundary carries a
// stable code plus a human-readable message the UI can render directly.
package fault

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Code identifies an error category. Codes are part of the wire contract
// and must stay stable.
type Code string

const (
	// Unauthorized means the caller presented no or invalid credentials.
	Unauthorized Code = "unauthorized"
	// Forbidden means the caller is authenticated but not entitled to the
	// operation (wrong role or wrong restaurant ownership).
	Forbidden Code = "forbidden"
	// NotFound means a referenced restaurant, order, or user is absent.
	NotFound Code = "not_found"
	// Validation means the input is malformed, e.g. an empty item list or
	// a missing cancellation reason.
	Validation Code = "validation_error"
	// InvalidTransition means an attempted mutation of a terminal order.
	InvalidTransition Code = "invalid_state_transition"
	// ResourceExhausted means order-number allocation ran out of retries.
	ResourceExhausted Code = "resource_exhausted"
	// Internal covers unexpected persistence or infrastructure failures.
	Internal Code = "internal"
)

// Error pairs a taxonomy code with a message and an optional wrapped cause.
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

// New creates a fault with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a fault with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault that keeps err as its cause. The cause is preserved
// for logs; only Code and Message are surfaced to callers.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the taxonomy code from err. Errors outside the taxonomy
// map to Internal.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return Internal
}

// MessageOf extracts the caller-facing message from err. Errors outside
// the taxonomy yield a generic message so internals never leak.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return "internal error"
}

// Has reports whether err carries the given code.
func Has(err error, code Code) bool {
	return CodeOf(err) == code
}
