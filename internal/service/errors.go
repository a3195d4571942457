// Package service holds the business logic of the booking API: catalog
// queries, promo validation and booking creation.  Every failure leaving
// this package is an *Error whose Kind is one of the sentinels below, so
// transports can map outcomes without inspecting storage errors.
package service

import "errors"

// Error kinds.  Compare with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrCapacity      = errors.New("capacity unavailable")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrStorage       = errors.New("storage failure")
)

// Error is a classified service failure.  Message is safe to show to
// clients; Err keeps the underlying cause for logs.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func storageError(msg string, err error) error {
	return &Error{Kind: ErrStorage, Message: msg, Err: err}
}

// Message returns the client-safe text of err.  Unclassified errors
// yield fallback.
func Message(err error, fallback string) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
