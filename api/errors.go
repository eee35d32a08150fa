// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and the type-erased error wrapper shared by every layer.

package api

import "errors"

// Common errors used across the library.
var (
	ErrServiceClosed  = errors.New("service is closed")
	ErrMissingService = errors.New("builder has no terminal service")
)

// Error is a type-erased, displayable error container. It lets heterogeneous
// failure types cross composition boundaries while keeping the original cause
// reachable through errors.Is and errors.As.
type Error struct {
	inner error
}

// NewError wraps err. A nil err yields a nil *Error.
func NewError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{inner: err}
}

// BoxError returns err as an *Error, wrapping it only when needed.
// Nil stays nil so callers can write `return resp, api.BoxError(err)`.
func BoxError(err error) error {
	if err == nil {
		return nil
	}
	return NewError(err)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil || e.inner == nil {
		return "<nil>"
	}
	return e.inner.Error()
}

// Unwrap exposes the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.inner
}
