// Package errs holds the error taxonomy shared by every layer of the
// learner, so that a caller several packages removed from where an error
// originated can still switch on its kind with errors.Is/errors.As.
package errs

import "fmt"

// Kind identifies one of the error categories from the design's error
// taxonomy. Kind values are comparable and safe to use with errors.Is.
type Kind string

const (
	ClockSetMismatch  Kind = "clock_set_mismatch"
	UnknownClock      Kind = "unknown_clock"
	UnknownAction     Kind = "unknown_action"
	UnknownLocation   Kind = "unknown_location"
	NegativeDelay     Kind = "negative_delay"
	InconsistentTiming Kind = "inconsistent_timing"
	InvalidRational   Kind = "invalid_rational"
	AtomTrivial       Kind = "atom_trivial"
	OracleUnknown     Kind = "oracle_unknown"
	GuessInfeasible   Kind = "guess_infeasible"
	TeacherError      Kind = "teacher_error"
	Exhausted         Kind = "exhausted"
)

// Error is a taxonomy-tagged error. Every fatal error raised by this module
// is one of these so that callers can branch on Kind without string
// matching.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, errs.New(errs.UnknownClock, "")) works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around an existing cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// OfKind reports whether err is an *Error of the given kind, anywhere in
// its unwrap chain.
func OfKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
