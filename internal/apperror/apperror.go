// Package apperror defines the error kinds shared by the domain packages.
//
// Domain code returns either one of the sentinel kinds (wrapped with context)
// or an *Error carrying a kind, a human readable message and optional details.
// The HTTP layer maps kinds to status codes with errors.Is.
package apperror

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrBadRequest    = errors.New("bad request")
	ErrUnprocessable = errors.New("unprocessable entity")
	ErrConflict      = errors.New("conflict")
	ErrUpstream      = errors.New("upstream failure")
)

type Error struct {
	Kind    error
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}

	return []error{e.Kind}
}

func NotFound(msg string, details map[string]any) *Error {
	return &Error{Kind: ErrNotFound, Message: msg, Details: details}
}

func BadRequest(msg string, details map[string]any) *Error {
	return &Error{Kind: ErrBadRequest, Message: msg, Details: details}
}

func Unprocessable(msg string, details map[string]any) *Error {
	return &Error{Kind: ErrUnprocessable, Message: msg, Details: details}
}

func Conflict(msg string, details map[string]any) *Error {
	return &Error{Kind: ErrConflict, Message: msg, Details: details}
}

// Upstream wraps a failure of an external provider (payment, storage, email).
func Upstream(msg string, cause error) *Error {
	return &Error{Kind: ErrUpstream, Message: msg, Cause: cause}
}

// Details returns the details attached to the first *Error in err's chain.
func Details(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}

	return nil
}

// Message returns the caller-facing message of the first *Error in err's chain,
// or the fallback when err carries none.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	return fallback
}
