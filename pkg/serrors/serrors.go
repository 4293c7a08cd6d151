// Package serrors provides semantic error kinds for the rule-set pipeline.
// Every abort cause of a generation run carries one of the kinds defined
// here so callers can branch with errors.Is instead of matching strings.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a marker interface implemented by all semantic error kinds created
// with NewKind. It allows distinguishing semantic kinds from ordinary errors.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind (a sentinel) with the provided
// name. Kinds are comparable and match with errors.Is/As through the
// serrors.Error wrapper.
func NewKind(name string) Kind { return kind{s: name} }

// Kinds used across the pipeline. Each one maps to a failure class that
// aborts a run.
var (
	// ErrFetch indicates the upstream list could not be downloaded or
	// answered with a non-2xx status.
	ErrFetch = NewKind("FETCH")
	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = NewKind("TIMEOUT")
	// ErrParse indicates the upstream list could not be read line by line.
	ErrParse = NewKind("PARSE")
	// ErrEmptyRuleSet indicates aggregation produced no domains.
	ErrEmptyRuleSet = NewKind("EMPTY_RULE_SET")
	// ErrArtifactTooSmall indicates a written artifact is below its minimum size.
	ErrArtifactTooSmall = NewKind("ARTIFACT_TOO_SMALL")
	// ErrArtifactMissing indicates an artifact expected on disk does not exist.
	ErrArtifactMissing = NewKind("ARTIFACT_MISSING")
	// ErrCompile indicates the external rule-set compiler failed.
	ErrCompile = NewKind("COMPILE")
	// ErrIO indicates a local filesystem operation failed.
	ErrIO = NewKind("IO")
	// ErrInvalidConfig indicates the configuration cannot drive a run.
	ErrInvalidConfig = NewKind("INVALID_CONFIG")
)

// Error carries a kind, an optional wrapped cause and an optional message.
// errors.Is and errors.As match both the kind and anything in the cause chain.
//
// Error string formatting:
//   - If both msg and err are set: "<msg>: <err>"
//   - If only msg is set: "<msg>"
//   - If only err is set: "<err>"
//   - If neither set: the kind's Error() string.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With constructs a semantic error with the given kind and a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a semantic error with the given kind that wraps err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	default:
		if e.kind != nil {
			return e.kind.Error()
		}

		return "unknown error"
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is matches either the kind sentinel or the wrapped cause.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}
	if e.err != nil && errors.Is(e.err, target) {
		return true
	}

	return false
}

// As matches either the kind sentinel or the wrapped cause.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}
	if e.err != nil && errors.As(e.err, target) {
		return true
	}

	return false
}

// Kind returns the semantic kind sentinel associated with this error, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message attached to this error.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped cause (may be nil).
func (e *Error) Cause() error { return e.err }

// KindOf walks the chain of err and returns the first semantic kind found,
// or nil when err carries none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.kind
	}

	return nil
}

// Label returns a short label for err suitable for metrics: the kind name,
// "OK" for a nil error, or "UNKNOWN".
func Label(err error) string {
	if err == nil {
		return "OK"
	}
	if k := KindOf(err); k != nil {
		return k.Error()
	}

	return "UNKNOWN"
}
