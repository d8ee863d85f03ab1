package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-checkable classification carried by every
// rejection the ledger core raises. The API boundary maps kinds to HTTP
// statuses; the core never deals in statuses itself.
type ErrorKind string

const (
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindStateConflict ErrorKind = "state_conflict"
	KindInsufficient  ErrorKind = "insufficient_funds"
	KindValidation    ErrorKind = "validation"
	KindInternal      ErrorKind = "internal"
)

// Error is a classified failure with a human-readable reason.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// E builds a classified error.
func E(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf builds a classified error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from err. Unclassified errors are
// treated as internal so infrastructure failures stay opaque to callers.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
