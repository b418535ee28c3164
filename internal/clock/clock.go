// Package clock holds the identity-typed entities the rest of the learner
// is built from: clocks, the zero clock singleton, actions, the alphabet,
// and locations. IDs are stable and monotonic within a process lifetime, as
// the teacher's State/Proposition identity types are in kripke-ctl, just
// generalized to carry a per-clock ceiling and to distinguish a singleton
// zero clock.
package clock

import "sync/atomic"

var idCounter atomic.Int64

func nextID() int64 { return idCounter.Add(1) }

// Clock is a stable, identity-compared clock with a display name and a
// saturation ceiling kappa. Two clocks are equal iff their IDs are equal.
type Clock struct {
	id    int64
	name  string
	kappa int
}

// zero is the distinguished clock x0 returned by Zero: id 0, kappa 0. It is
// a process-wide singleton; every reference to it compares equal.
var zero = Clock{id: 0, name: "x0", kappa: 0}

// Zero returns the zero-clock singleton.
func Zero() Clock { return zero }

// IsZero reports whether c is the zero clock.
func (c Clock) IsZero() bool { return c.id == 0 }

// NewClock allocates a fresh clock with the given display name and ceiling.
// kappa must be a positive integer; a non-zero clock with kappa <= 0 is a
// caller bug and panics (it can never arise from valid configuration).
func NewClock(name string, kappa int) Clock {
	if kappa <= 0 {
		panic("clock: kappa must be positive for a non-zero clock")
	}
	return Clock{id: nextID(), name: name, kappa: kappa}
}

// ID returns the clock's stable identity.
func (c Clock) ID() int64 { return c.id }

// Name returns the clock's display name.
func (c Clock) Name() string { return c.name }

// Kappa returns the clock's saturation ceiling.
func (c Clock) Kappa() int { return c.kappa }

// Equal reports whether c and other are the same clock.
func (c Clock) Equal(other Clock) bool { return c.id == other.id }

// String returns the clock's display name.
func (c Clock) String() string { return c.name }

// Set is an ordered, duplicate-free collection of clocks, used throughout
// the learner as "the clock set a DBM/valuation/region/constraint is
// defined over". Order matters: it fixes the DBM's row/column layout.
type Set struct {
	ordered []Clock
}

// NewSet builds a Set from clocks, deduplicating by ID and preserving the
// order of first occurrence. The zero clock is never included explicitly;
// it is implicit at index 0 of every DBM built from a Set.
func NewSet(clocks ...Clock) Set {
	s := Set{ordered: make([]Clock, 0, len(clocks))}
	for _, c := range clocks {
		if c.IsZero() {
			continue
		}
		s.Add(c)
	}
	return s
}

// Add appends c to the set if it is not already present.
func (s *Set) Add(c Clock) {
	if c.IsZero() {
		return
	}
	for _, existing := range s.ordered {
		if existing.Equal(c) {
			return
		}
	}
	s.ordered = append(s.ordered, c)
}

// Clocks returns the non-zero clocks in the set, in insertion order.
func (s Set) Clocks() []Clock {
	out := make([]Clock, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Len returns the number of non-zero clocks in the set.
func (s Set) Len() int { return len(s.ordered) }

// IndexOf returns the DBM row/column index of c within s (1..Len()), or -1
// if c is not in the set. The zero clock always has index 0.
func (s Set) IndexOf(c Clock) int {
	if c.IsZero() {
		return 0
	}
	for i, existing := range s.ordered {
		if existing.Equal(c) {
			return i + 1
		}
	}
	return -1
}

// Contains reports whether c is in the set (the zero clock is always
// considered present).
func (s Set) Contains(c Clock) bool {
	return c.IsZero() || s.IndexOf(c) >= 0
}

// Equal reports whether s and other contain the same clocks in the same
// order. DBM/constraint operations require this before combining values
// defined over two sets.
func (s Set) Equal(other Set) bool {
	if len(s.ordered) != len(other.ordered) {
		return false
	}
	for i, c := range s.ordered {
		if !c.Equal(other.ordered[i]) {
			return false
		}
	}
	return true
}
