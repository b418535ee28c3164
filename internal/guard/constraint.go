package guard

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/valuation"
)

// Status is the cached satisfiability classification of a Constraint.
type Status int

const (
	NotChecked Status = iota
	True             // confirmed satisfiable
	False            // confirmed unsatisfiable
	Unknown          // the oracle could not decide (conservative)
)

// validityCache is the sole point of internal mutation on a Constraint
// (spec.md §5): reads and writes are serialized by mu so a second observer
// always sees either the pre- or post-computation value, and the
// computation itself runs once via the package-level singleflight group.
type validityCache struct {
	mu     sync.Mutex
	status Status
}

// Constraint is a conjunction of atoms over a fixed clock set. Every
// non-zero clock in the set gets an implicit c>=0 atom at construction.
type Constraint struct {
	clocks clock.Set
	atoms  []Atom
	cache  *validityCache
}

// New builds a conjunction of the given atoms over clocks, adding the
// implicit non-negativity atom for every clock in the set.
func New(clocks clock.Set, atoms ...Atom) Constraint {
	all := make([]Atom, 0, len(atoms)+clocks.Len())
	all = append(all, atoms...)
	for _, c := range clocks.Clocks() {
		all = append(all, NonNegative(c))
	}
	cons := Constraint{clocks: clocks, atoms: all, cache: &validityCache{}}
	for _, a := range all {
		if a.DiagonalContradiction() {
			cons.cache.status = False
			break
		}
	}
	return cons
}

// TrueConstraint returns the tautological conjunction over clocks (just the
// implicit non-negativity atoms).
func TrueConstraint(clocks clock.Set) Constraint {
	c := New(clocks)
	c.cache.status = True
	return c
}

// FalseConstraint returns the unsatisfiable conjunction over clocks.
func FalseConstraint(clocks clock.Set) Constraint {
	c := New(clocks, FalseAtom())
	c.cache.status = False
	return c
}

// Clocks returns the clock set the constraint is defined over.
func (c Constraint) Clocks() clock.Set { return c.clocks }

// Atoms returns the constraint's atoms (including the implicit
// non-negativity atoms), in a stable, deterministic order.
func (c Constraint) Atoms() []Atom {
	out := make([]Atom, len(c.atoms))
	copy(out, c.atoms)
	return out
}

// And returns a new conjunction combining c and other's atoms. c and other
// must share the same clock set.
func (c Constraint) And(other Constraint) (Constraint, error) {
	if !c.clocks.Equal(other.clocks) {
		return Constraint{}, errs.New(errs.ClockSetMismatch, "And: clock sets differ")
	}
	combined := make([]Atom, 0, len(c.atoms)+len(other.atoms))
	combined = append(combined, c.atoms...)
	combined = append(combined, other.atoms...)
	// New() re-adds the non-negativity atoms, which is harmless (duplicate
	// atoms only tighten a bound that is already at least as tight).
	return New(c.clocks, combined...), nil
}

// Or returns the two-disjunct DNF {c, other}.
func (c Constraint) Or(other Constraint) (DisjunctiveConstraint, error) {
	if !c.clocks.Equal(other.clocks) {
		return DisjunctiveConstraint{}, errs.New(errs.ClockSetMismatch, "Or: clock sets differ")
	}
	return NewDNF(c.clocks, c, other), nil
}

// Negate returns the DNF negation of c by De Morgan on its atoms: each
// atom's dual becomes a one-atom disjunct's sole constraining atom, except
// that a trivial atom's negation (AtomTrivial) contributes TRUE or FALSE
// directly to the disjunction instead of a malformed atom.
func (c Constraint) Negate() DisjunctiveConstraint {
	disjuncts := make([]Constraint, 0, len(c.atoms))
	for _, a := range c.atoms {
		dual, err := a.Negate()
		if err != nil {
			// a was a trivial tautology (e.g. x-x<=0): its negation is
			// FALSE, which contributes nothing to the disjunction.
			continue
		}
		disjuncts = append(disjuncts, New(c.clocks, dual))
	}
	if len(disjuncts) == 0 {
		return FalseDNF(c.clocks)
	}
	return NewDNF(c.clocks, disjuncts...)
}

// Minus returns c AND NOT(other), as a DNF.
func (c Constraint) Minus(other Constraint) (DisjunctiveConstraint, error) {
	if !c.clocks.Equal(other.clocks) {
		return DisjunctiveConstraint{}, errs.New(errs.ClockSetMismatch, "Minus: clock sets differ")
	}
	negOther := other.Negate()
	return negOther.AndConstraint(c)
}

// Implies reports whether c implies other: equivalent to c.Minus(other)
// being unsatisfiable.
func (c Constraint) Implies(other Constraint, oracle Oracle) (bool, error) {
	diff, err := c.Minus(other)
	if err != nil {
		return false, err
	}
	sat, err := diff.IsSatisfiable(oracle)
	if err != nil {
		return false, err
	}
	return !sat, nil
}

// IsSatisfied evaluates every atom of c concretely against v.
func (c Constraint) IsSatisfied(v valuation.Valuation) (bool, error) {
	for _, a := range c.atoms {
		ok, err := a.IsSatisfied(v)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Simplify folds all single-clock atoms (c op V and x0-c op V) per-clock
// into at most one lower and one upper bound, detects lower>upper as
// FALSE, and leaves genuine difference atoms (between two non-zero clocks)
// untouched.
func (c Constraint) Simplify() Constraint {
	type lowUp struct {
		lowSet, upSet     bool
		low, up           Atom // ClockGeq/ClockGt-style and ClockLeq/ClockLt-style atoms
	}
	perClock := make(map[int64]*lowUp)
	var diffAtoms []Atom
	var order []clock.Clock

	tighterUpper := func(a, b Atom) Atom {
		// both are C-Zero upper bounds: c <= a.Bound or c < a.Bound
		if a.Bound.Less(b.Bound) {
			return a
		}
		if b.Bound.Less(a.Bound) {
			return b
		}
		if !a.Closed {
			return a
		}
		return b
	}
	tighterLower := func(a, b Atom) Atom {
		// both are Zero-C lower bounds: x0-c <= a.Bound (c >= -a.Bound)
		if a.Bound.Less(b.Bound) {
			return a
		}
		if b.Bound.Less(a.Bound) {
			return b
		}
		if !a.Closed {
			return a
		}
		return b
	}

	for _, a := range c.atoms {
		switch {
		case a.IsDiagonal():
			if a.DiagonalContradiction() {
				return FalseConstraint(c.clocks)
			}
			continue
		case a.C2.IsZero() && !a.C1.IsZero():
			lu := perClock[a.C1.ID()]
			if lu == nil {
				lu = &lowUp{}
				perClock[a.C1.ID()] = lu
				order = append(order, a.C1)
			}
			if !lu.upSet {
				lu.up, lu.upSet = a, true
			} else {
				lu.up = tighterUpper(lu.up, a)
			}
		case a.C1.IsZero() && !a.C2.IsZero():
			lu := perClock[a.C2.ID()]
			if lu == nil {
				lu = &lowUp{}
				perClock[a.C2.ID()] = lu
				order = append(order, a.C2)
			}
			if !lu.lowSet {
				lu.low, lu.lowSet = a, true
			} else {
				lu.low = tighterLower(lu.low, a)
			}
		default:
			diffAtoms = append(diffAtoms, a)
		}
	}

	out := make([]Atom, 0, len(diffAtoms)+2*len(order))
	out = append(out, diffAtoms...)
	for _, cl := range order {
		lu := perClock[cl.ID()]
		if lu.lowSet && lu.upSet {
			// lower: c >= L (x0-c <= -L); upper: c <= U. Contradiction if L>U,
			// or L==U with either bound strict.
			lowerValue := lu.low.Bound.Neg()
			upperValue := lu.up.Bound
			cmp := lowerValue.Compare(upperValue)
			if cmp > 0 || (cmp == 0 && (!lu.low.Closed || !lu.up.Closed)) {
				return FalseConstraint(c.clocks)
			}
		}
		if lu.lowSet {
			out = append(out, lu.low)
		}
		if lu.upSet {
			out = append(out, lu.up)
		}
	}
	return Constraint{clocks: c.clocks, atoms: out, cache: &validityCache{}}
}

// signature renders a deterministic string key for the constraint's atoms,
// used to deduplicate concurrent oracle calls for equal constraints via
// singleflight.
func (c Constraint) signature() string {
	atoms := make([]string, len(c.atoms))
	for i, a := range c.atoms {
		op := "<="
		if !a.Closed {
			op = "<"
		}
		atoms[i] = fmt.Sprintf("%d,%d,%s,%s", a.C1.ID(), a.C2.ID(), a.Bound.String(), op)
	}
	sort.Strings(atoms)
	return fmt.Sprintf("%v", atoms)
}

func (c Constraint) String() string {
	parts := make([]string, 0, len(c.atoms))
	for _, a := range c.atoms {
		parts = append(parts, a.String())
	}
	sort.Strings(parts)
	out := "TRUE"
	for i, p := range parts {
		if i == 0 {
			out = p
		} else {
			out += " ∧ " + p
		}
	}
	return out
}
