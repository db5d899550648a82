package domain

import "fmt"

// ErrorKind classifies an operation failure for machine consumption. External
// collaborators (chat bot, mobile UI) render the Reason as a one-line message.
type ErrorKind string

const (
	KindNotFound       ErrorKind = "not_found"
	KindValidation     ErrorKind = "validation"
	KindInsufficient   ErrorKind = "insufficient_resources"
	KindMissingContext ErrorKind = "missing_context"
	KindPersistence    ErrorKind = "persistence"
)

// Error is a structured, recoverable operation failure. It aborts exactly one
// operation, leaves the ledger untouched and never crashes the engine.
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Reason
}

// Is matches on Kind so callers can test categories with errors.Is, e.g.
// errors.Is(err, &Error{Kind: KindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// KindOf extracts the error kind, or "" for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}

// NotFoundf builds a not_found error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Reason: fmt.Sprintf(format, args...)}
}

// Validationf builds a validation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Reason: fmt.Sprintf(format, args...)}
}

// Insufficientf builds an insufficient_resources error.
func Insufficientf(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficient, Reason: fmt.Sprintf(format, args...)}
}

// MissingContextf builds a missing_context error.
func MissingContextf(format string, args ...any) *Error {
	return &Error{Kind: KindMissingContext, Reason: fmt.Sprintf(format, args...)}
}

// Persistencef builds a persistence error.
func Persistencef(format string, args ...any) *Error {
	return &Error{Kind: KindPersistence, Reason: fmt.Sprintf(format, args...)}
}

// ErrMissingCashContext is returned when the player identity trades without
// supplying its live in-game cash.
var ErrMissingCashContext = &Error{Kind: KindMissingContext, Reason: "player trade requires current in-game cash"}
