// Package guard implements the difference-constraint guard algebra:
// atomic constraints, their conjunctions, and disjunctive normal form, plus
// the pluggable constraint oracle used to decide satisfiability and
// validity (spec.md §4.D). Every Z3/SMT use in the original source is
// replaced here by a complete decision procedure specialised to linear
// rational difference logic: conjunctions of atoms map directly onto a
// difference-bound matrix (internal/dbm), whose emptiness check is exact
// for exactly this fragment.
package guard

import (
	"fmt"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/valuation"
)

// Atom is a single difference constraint: C1 - C2 <= Bound (Closed) or
// C1 - C2 < Bound (!Closed).
type Atom struct {
	C1, C2 clock.Clock
	Bound  rational.Rational
	Closed bool
}

// ClockLeq builds the atom c <= v.
func ClockLeq(c clock.Clock, v rational.Rational) Atom {
	return Atom{C1: c, C2: clock.Zero(), Bound: v, Closed: true}
}

// ClockLt builds the atom c < v.
func ClockLt(c clock.Clock, v rational.Rational) Atom {
	return Atom{C1: c, C2: clock.Zero(), Bound: v, Closed: false}
}

// ClockGeq builds the atom c >= v, i.e. x0 - c <= -v.
func ClockGeq(c clock.Clock, v rational.Rational) Atom {
	return Atom{C1: clock.Zero(), C2: c, Bound: v.Neg(), Closed: true}
}

// ClockGt builds the atom c > v, i.e. x0 - c < -v.
func ClockGt(c clock.Clock, v rational.Rational) Atom {
	return Atom{C1: clock.Zero(), C2: c, Bound: v.Neg(), Closed: false}
}

// DiffLeq builds the atom c1 - c2 <= v.
func DiffLeq(c1, c2 clock.Clock, v rational.Rational) Atom {
	return Atom{C1: c1, C2: c2, Bound: v, Closed: true}
}

// DiffLt builds the atom c1 - c2 < v.
func DiffLt(c1, c2 clock.Clock, v rational.Rational) Atom {
	return Atom{C1: c1, C2: c2, Bound: v, Closed: false}
}

// DiffGeq builds the atom c1 - c2 >= v, i.e. c2 - c1 <= -v.
func DiffGeq(c1, c2 clock.Clock, v rational.Rational) Atom {
	return Atom{C1: c2, C2: c1, Bound: v.Neg(), Closed: true}
}

// DiffGt builds the atom c1 - c2 > v, i.e. c2 - c1 < -v.
func DiffGt(c1, c2 clock.Clock, v rational.Rational) Atom {
	return Atom{C1: c2, C2: c1, Bound: v.Neg(), Closed: false}
}

// NonNegative builds the atom c >= 0 (x0 - c <= 0), implicitly added to
// every conjunction over c (spec.md §3).
func NonNegative(c clock.Clock) Atom {
	return Atom{C1: clock.Zero(), C2: c, Bound: rational.Zero(), Closed: true}
}

// FalseAtom is the canonical atom that is always unsatisfiable: x0-x0 < 0.
func FalseAtom() Atom {
	return Atom{C1: clock.Zero(), C2: clock.Zero(), Bound: rational.Zero(), Closed: false}
}

// IsDiagonal reports whether the atom relates a clock to itself.
func (a Atom) IsDiagonal() bool { return a.C1.Equal(a.C2) }

// DiagonalContradiction reports whether a diagonal atom is a contradiction:
// c-c <= V with V<0, or c-c < V with V<=0. These are the only atom-level
// contradictions (spec.md §3).
func (a Atom) DiagonalContradiction() bool {
	if !a.IsDiagonal() {
		return false
	}
	if a.Closed {
		return a.Bound.Sign() < 0
	}
	return a.Bound.Sign() <= 0
}

// Negate returns the single dual atom C2-C1 <V'/<=V'> -Bound. If the dual
// would itself be a diagonal contradiction (i.e. a was a trivial tautology
// whose negation has no valid atom form), Negate reports AtomTrivial; the
// caller (the DNF layer) converts that into TRUE or FALSE directly rather
// than threading a malformed atom through the algebra.
func (a Atom) Negate() (Atom, error) {
	dual := Atom{C1: a.C2, C2: a.C1, Bound: a.Bound.Neg(), Closed: !a.Closed}
	if dual.DiagonalContradiction() {
		return Atom{}, errs.New(errs.AtomTrivial, "negation of trivial atom %v has no valid atom form", a)
	}
	return dual, nil
}

// IsSatisfied evaluates the atom concretely against a valuation.
func (a Atom) IsSatisfied(v valuation.Valuation) (bool, error) {
	v1, err := v.Value(a.C1)
	if err != nil {
		return false, err
	}
	v2, err := v.Value(a.C2)
	if err != nil {
		return false, err
	}
	diff, err := v1.Sub(v2)
	if err != nil {
		return false, err
	}
	if a.Closed {
		return diff.LessEqual(a.Bound), nil
	}
	return diff.Less(a.Bound), nil
}

// SameRelation reports whether a and b constrain the same clock pair
// (ignoring bound/strictness).
func (a Atom) SameRelation(b Atom) bool {
	return a.C1.Equal(b.C1) && a.C2.Equal(b.C2)
}

func (a Atom) String() string {
	op := "<="
	if !a.Closed {
		op = "<"
	}
	if a.C2.IsZero() {
		return fmt.Sprintf("%s %s %v", a.C1.Name(), op, a.Bound)
	}
	if a.C1.IsZero() {
		return fmt.Sprintf("-%s %s %v", a.C2.Name(), op, a.Bound)
	}
	return fmt.Sprintf("%s-%s %s %v", a.C1.Name(), a.C2.Name(), op, a.Bound)
}
