// Package errs defines LIMAR's error taxonomy: a small set of error kinds
// shared across every component, so callers can branch on "what kind of
// thing went wrong" with errors.Is/errors.As instead of string matching.
package errs

import "fmt"

// Kind classifies an Error. Every fatal error raised by core components
// carries one of these.
type Kind string

const (
	ConfigError      Kind = "ConfigError"
	RegistrationError Kind = "RegistrationError"
	DependencyError  Kind = "DependencyError"
	ManifestError    Kind = "ManifestError"
	StoreError       Kind = "StoreError"
	CommandParseError Kind = "CommandParseError"
	CommandRunError  Kind = "CommandRunError"
	PhaseError       Kind = "PhaseError"
	BatchError       Kind = "BatchError"
	InternalError    Kind = "InternalError"
)

// Error is the concrete error type used across the core. It carries a Kind
// for programmatic dispatch and wraps an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, errs.Kind(...)) style checks via a sentinel
// wrapper (KindOf) — see KindOf below. A target *Error with no Message and
// no Cause matches any *Error of the same Kind, which keeps
// errors.Is(err, someKindSentinel) working without requiring callers to
// compare messages; any other target *Error matches only when both Kind
// and Message are equal.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	if other.Message == "" && other.Cause == nil {
		return e.Kind == other.Kind
	}
	return e.Kind == other.Kind && e.Message == other.Message
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind, wrapping cause, with a formatted
// message.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns a sentinel *Error carrying only a Kind, suitable for use
// with errors.Is(err, errs.KindOf(errs.StoreError)).
func KindOf(kind Kind) *Error {
	return &Error{Kind: kind}
}
