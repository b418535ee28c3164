package guard

import (
	"sort"
	"strings"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/valuation"
)

// DisjunctiveConstraint is a disjunctive normal form over a fixed clock
// set: a set of Constraints (conjunctions). The empty set denotes FALSE; a
// set containing a structurally-TRUE conjunction denotes TRUE.
type DisjunctiveConstraint struct {
	clocks    clock.Set
	disjuncts []Constraint
}

// NewDNF builds a DNF over clocks from the given disjuncts.
func NewDNF(clocks clock.Set, disjuncts ...Constraint) DisjunctiveConstraint {
	return DisjunctiveConstraint{clocks: clocks, disjuncts: append([]Constraint{}, disjuncts...)}
}

// FalseDNF returns the empty disjunction (FALSE).
func FalseDNF(clocks clock.Set) DisjunctiveConstraint {
	return DisjunctiveConstraint{clocks: clocks}
}

// TrueDNF returns a one-disjunct DNF containing the tautology.
func TrueDNF(clocks clock.Set) DisjunctiveConstraint {
	return NewDNF(clocks, TrueConstraint(clocks))
}

// Clocks returns the clock set the DNF is defined over.
func (d DisjunctiveConstraint) Clocks() clock.Set { return d.clocks }

// Disjuncts returns the DNF's conjunctions.
func (d DisjunctiveConstraint) Disjuncts() []Constraint {
	out := make([]Constraint, len(d.disjuncts))
	copy(out, d.disjuncts)
	return out
}

// IsTriviallyTrue reports whether c has no constraining atoms beyond the
// implicit non-negativity ones.
func (c Constraint) IsTriviallyTrue() bool {
	for _, a := range c.atoms {
		if a.IsDiagonal() {
			if a.DiagonalContradiction() {
				return false
			}
			continue
		}
		if a.C1.IsZero() && !a.C2.IsZero() && a.Closed && a.Bound.Sign() == 0 {
			continue
		}
		return false
	}
	return true
}

// IsTriviallyFalse reports whether c contains a diagonal contradiction.
func (c Constraint) IsTriviallyFalse() bool {
	for _, a := range c.atoms {
		if a.DiagonalContradiction() {
			return true
		}
	}
	return false
}

// IsTriviallyTrue reports whether the DNF contains a structurally-TRUE
// disjunct.
func (d DisjunctiveConstraint) IsTriviallyTrue() bool {
	for _, c := range d.disjuncts {
		if c.IsTriviallyTrue() {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the DNF is the empty disjunction (structural
// FALSE).
func (d DisjunctiveConstraint) IsEmpty() bool { return len(d.disjuncts) == 0 }

// AndConstraint distributes c over d's disjuncts: d AND c.
func (d DisjunctiveConstraint) AndConstraint(c Constraint) (DisjunctiveConstraint, error) {
	if !d.clocks.Equal(c.clocks) {
		return DisjunctiveConstraint{}, errs.New(errs.ClockSetMismatch, "AndConstraint: clock sets differ")
	}
	out := make([]Constraint, 0, len(d.disjuncts))
	for _, disj := range d.disjuncts {
		combined, err := disj.And(c)
		if err != nil {
			return DisjunctiveConstraint{}, err
		}
		out = append(out, combined)
	}
	return NewDNF(d.clocks, out...), nil
}

// And returns the DNF for d AND other, by distributing every pair of
// disjuncts.
func (d DisjunctiveConstraint) And(other DisjunctiveConstraint) (DisjunctiveConstraint, error) {
	if !d.clocks.Equal(other.clocks) {
		return DisjunctiveConstraint{}, errs.New(errs.ClockSetMismatch, "And: clock sets differ")
	}
	out := make([]Constraint, 0, len(d.disjuncts)*len(other.disjuncts))
	for _, a := range d.disjuncts {
		for _, b := range other.disjuncts {
			combined, err := a.And(b)
			if err != nil {
				return DisjunctiveConstraint{}, err
			}
			out = append(out, combined)
		}
	}
	return NewDNF(d.clocks, out...), nil
}

// Or returns the union of d and other's disjuncts.
func (d DisjunctiveConstraint) Or(other DisjunctiveConstraint) DisjunctiveConstraint {
	out := make([]Constraint, 0, len(d.disjuncts)+len(other.disjuncts))
	out = append(out, d.disjuncts...)
	out = append(out, other.disjuncts...)
	return NewDNF(d.clocks, out...)
}

// Negate returns the DNF negation of d by De Morgan: AND the negations of
// every disjunct.
func (d DisjunctiveConstraint) Negate() (DisjunctiveConstraint, error) {
	result := TrueDNF(d.clocks)
	for _, disj := range d.disjuncts {
		negated := disj.Negate()
		combined, err := result.And(negated)
		if err != nil {
			return DisjunctiveConstraint{}, err
		}
		result = combined
	}
	return result, nil
}

// Minus returns d AND NOT(other).
func (d DisjunctiveConstraint) Minus(other DisjunctiveConstraint) (DisjunctiveConstraint, error) {
	negOther, err := other.Negate()
	if err != nil {
		return DisjunctiveConstraint{}, err
	}
	return d.And(negOther)
}

// Simplify simplifies every disjunct and drops any that are trivially
// false.
func (d DisjunctiveConstraint) Simplify() DisjunctiveConstraint {
	out := make([]Constraint, 0, len(d.disjuncts))
	for _, disj := range d.disjuncts {
		s := disj.Simplify()
		if s.IsTriviallyFalse() {
			continue
		}
		out = append(out, s)
	}
	return NewDNF(d.clocks, out...)
}

// IsSatisfiable reports whether any disjunct is satisfiable.
func (d DisjunctiveConstraint) IsSatisfiable(oracle Oracle) (bool, error) {
	if d.IsTriviallyTrue() {
		return true, nil
	}
	var firstErr error
	for _, disj := range d.disjuncts {
		sat, err := disj.IsSatisfiable(oracle)
		if err != nil {
			if errs.OfKind(err, errs.OracleUnknown) {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			return false, err
		}
		if sat {
			return true, nil
		}
	}
	if firstErr != nil {
		return false, firstErr
	}
	return false, nil
}

// IsSatisfiedBy reports whether v satisfies at least one disjunct.
func (d DisjunctiveConstraint) IsSatisfiedBy(v valuation.Valuation) (bool, error) {
	for _, disj := range d.disjuncts {
		ok, err := disj.IsSatisfied(v)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// NegateDisjoint returns a DNF logically equivalent to d whose disjuncts
// are pairwise disjoint, by iteratively subtracting each already-emitted
// disjunct from the next candidate (spec.md §4.D). Disjuncts the oracle
// cannot prove satisfiable are dropped rather than propagated, per the
// conservative handling of OracleUnknown (spec.md §7).
func (d DisjunctiveConstraint) NegateDisjoint(oracle Oracle) (DisjunctiveConstraint, error) {
	var final []Constraint
	for _, cand := range d.disjuncts {
		remaining := NewDNF(d.clocks, cand)
		for _, already := range final {
			next, err := remaining.Minus(NewDNF(d.clocks, already))
			if err != nil {
				return DisjunctiveConstraint{}, err
			}
			remaining = next
		}
		for _, piece := range remaining.disjuncts {
			sat, err := piece.IsSatisfiable(oracle)
			if err != nil {
				if errs.OfKind(err, errs.OracleUnknown) {
					continue
				}
				return DisjunctiveConstraint{}, err
			}
			if sat {
				final = append(final, piece)
			}
		}
	}
	return NewDNF(d.clocks, final...), nil
}

func (d DisjunctiveConstraint) String() string {
	if d.IsEmpty() {
		return "FALSE"
	}
	parts := make([]string, len(d.disjuncts))
	for i, disj := range d.disjuncts {
		parts[i] = "(" + disj.String() + ")"
	}
	sort.Strings(parts)
	return strings.Join(parts, " ∨ ")
}
