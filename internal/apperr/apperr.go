// Package apperr classifies domain failures so handlers can translate them
// to HTTP statuses uniformly. Every service converts its own failures into
// one of these kinds before returning.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindInternal is the fallback for faults that escaped classification.
	KindInternal Kind = iota
	// KindValidation covers missing or malformed caller input.
	KindValidation
	// KindUnauthenticated means no, invalid, or expired session.
	KindUnauthenticated
	// KindForbidden means authenticated but insufficient role or subscription.
	KindForbidden
	// KindNotFound means a referenced entity is absent.
	KindNotFound
	// KindUpstream means the media host, payment provider, or email sender failed.
	KindUpstream
	// KindNotVerified means a payment signature mismatch.
	KindNotVerified
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a caller-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an underlying error, keeping it available via Unwrap.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Status maps an error to its HTTP status code. Unclassified errors are 500.
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation, KindNotVerified:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing message, hiding internals for
// unclassified errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
