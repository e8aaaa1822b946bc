// Package errs carries the discriminated error taxonomy returned by the
// engines. Expected conditions (not found, forbidden, validation, invalid
// operation) travel as *Error values; anything else is wrapped as Unexpected
// at the boundary.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure.
type Kind string

const (
	// KindNotFound covers entities that do not exist or live outside the
	// caller's organization. The two cases are deliberately indistinguishable
	// so cross-tenant existence is never revealed.
	KindNotFound Kind = "not_found"

	// KindForbidden means the principal lacks the required role.
	KindForbidden Kind = "forbidden"

	// KindValidation is a structural or content violation, optionally with
	// field-level detail for form callers.
	KindValidation Kind = "validation"

	// KindInvalidOperation is a state-machine violation that is not a
	// validation problem, e.g. deleting the last column.
	KindInvalidOperation Kind = "invalid_operation"

	// KindUnexpected is an unanticipated fault; logged server-side and
	// surfaced as a generic retry-safe message.
	KindUnexpected Kind = "unexpected"
)

// Error is the discriminated result type returned by engine operations.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string // field -> messages, validation only
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// NotFound builds a tenant-safe not-found error.
func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// Forbidden builds a role failure.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Validation builds a single-message validation failure.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// ValidationFields builds a validation failure carrying per-field detail.
func ValidationFields(msg string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// InvalidOperation builds a state-machine violation.
func InvalidOperation(msg string) *Error {
	return &Error{Kind: KindInvalidOperation, Message: msg}
}

// Unexpected wraps an unanticipated fault. The cause is preserved for
// server-side logging but callers only see the generic message.
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "an unexpected error occurred", cause: err}
}

// KindOf returns the Kind of err, or KindUnexpected for any error that is not
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
