// Package apperror defines the error taxonomy shared by all service layers.
// Every API-level failure carries a stable machine-checkable kind plus a
// human-readable message; the HTTP layer maps kinds to status codes.
package apperror

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Kind identifies the class of an error.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindNotFound     Kind = "not_found"
	KindDuplicateKey Kind = "duplicate_key"
	KindStore        Kind = "store_error"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, not exposed to clients in production
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed caller input. Never retried.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a lookup that found nothing where presence was expected.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Duplicate reports a uniqueness violation (e.g. national ID already taken).
func Duplicate(message string, err error) *Error {
	return &Error{Kind: KindDuplicateKey, Message: message, Err: err}
}

// Store wraps an opaque failure from the underlying store.
func Store(message string, err error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: err}
}

// KindOf extracts the kind of err, defaulting to KindStore for anything
// that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// FromStore classifies a database error: unique-constraint violations become
// DuplicateKey, everything else is an opaque store failure.
func FromStore(message string, err error) *Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return Duplicate(message, err)
	}
	return Store(message, err)
}
