// Package region implements the region abstraction over clock valuations
// (spec.md §3, §4.E): the finite equivalence classes induced by integer
// parts up to each clock's ceiling kappa and the ordering of fractional
// parts, used by the word/region conversions and by guessing in the
// observation table to recover a guard from a set of witnessing valuations.
package region

import (
	"fmt"
	"sort"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/valuation"
)

// Region is the canonical equivalence class of a clock valuation: per-clock
// integer part (saturated clocks read kappa+1), the set of clocks with a
// zero fractional part, and the remaining clocks ordered by their actual
// fractional value.
type Region struct {
	clocks        clock.Set
	integerParts  map[int64]int64
	saturated     map[int64]bool
	zeroFrac      map[int64]bool
	fractionOrder []clock.Clock
}

// FromValuation computes the canonical region of v over clocks.
func FromValuation(v valuation.Valuation, clocks clock.Set) (Region, error) {
	r := Region{
		clocks:       clocks,
		integerParts: make(map[int64]int64),
		saturated:    make(map[int64]bool),
		zeroFrac:     make(map[int64]bool),
	}
	type fracEntry struct {
		c    clock.Clock
		frac rational.Rational
	}
	var fracs []fracEntry
	for _, c := range clocks.Clocks() {
		val, err := v.Value(c)
		if err != nil {
			return Region{}, err
		}
		floorInt, err := val.FloorInt()
		if err != nil {
			return Region{}, err
		}
		if floorInt > int64(c.Kappa()) {
			r.saturated[c.ID()] = true
			r.integerParts[c.ID()] = int64(c.Kappa()) + 1
			continue
		}
		r.integerParts[c.ID()] = floorInt
		isZero, err := v.IsFractionZero(c)
		if err != nil {
			return Region{}, err
		}
		if isZero {
			r.zeroFrac[c.ID()] = true
			continue
		}
		frac, err := v.Fraction(c)
		if err != nil {
			return Region{}, err
		}
		fracs = append(fracs, fracEntry{c: c, frac: frac})
	}
	sort.SliceStable(fracs, func(i, j int) bool { return fracs[i].frac.Less(fracs[j].frac) })
	r.fractionOrder = make([]clock.Clock, len(fracs))
	for i, f := range fracs {
		r.fractionOrder[i] = f.c
	}
	return r, nil
}

func (r Region) isSaturated(c clock.Clock) bool { return r.saturated[c.ID()] }
func (r Region) isZeroFrac(c clock.Clock) bool  { return r.zeroFrac[c.ID()] }

// Clocks returns the clock set the region is defined over.
func (r Region) Clocks() clock.Set { return r.clocks }

// Equal reports whether r and other denote the same equivalence class.
func (r Region) Equal(other Region) bool {
	if !r.clocks.Equal(other.clocks) {
		return false
	}
	for _, c := range r.clocks.Clocks() {
		if r.isSaturated(c) != other.isSaturated(c) {
			return false
		}
		if !r.isSaturated(c) && r.integerParts[c.ID()] != other.integerParts[c.ID()] {
			return false
		}
		if r.isZeroFrac(c) != other.isZeroFrac(c) {
			return false
		}
	}
	if len(r.fractionOrder) != len(other.fractionOrder) {
		return false
	}
	for i, c := range r.fractionOrder {
		if !c.Equal(other.fractionOrder[i]) {
			return false
		}
	}
	return true
}

// Contains reports whether v belongs to r's equivalence class.
func (r Region) Contains(v valuation.Valuation) (bool, error) {
	other, err := FromValuation(v, r.clocks)
	if err != nil {
		return false, err
	}
	return r.Equal(other), nil
}

// BuildValuation returns the canonical representative valuation of r:
// integer parts placed as recorded, zeroFrac clocks get fraction 0, and the
// remaining clocks get fractions k/(n+1) for k=1..n in fractionOrder.
func (r Region) BuildValuation() valuation.Valuation {
	v := valuation.Zero(r.clocks)
	n := int64(len(r.fractionOrder))
	for _, c := range r.clocks.Clocks() {
		ip := r.integerParts[c.ID()]
		base := rational.FromInt(ip)
		v = v.With(c, base)
	}
	for k, c := range r.fractionOrder {
		ip := r.integerParts[c.ID()]
		frac := rational.FromInts(int64(k+1), n+1)
		val, err := rational.FromInt(ip).Add(frac)
		if err != nil {
			panic(err) // finite + finite never errors
		}
		v = v.With(c, val)
	}
	return v
}

// ToConstraint emits the conjunctive guard characterising r's equivalence
// class (spec.md §4.E): integer-part bounds, strict lower and upper bounds
// (intPart < c < intPart+1) for every fractional clock, and pairwise
// difference atoms recovering the fractional order against zeroFrac clocks
// and earlier fractional clocks. The atom against an earlier fractional
// clock is non-strict when that clock also comes earlier in the clock set,
// because FromValuation orders equal fractions by clock-set order. When
// needFraction is set, equal-fraction atoms are also emitted between every
// pair of zeroFrac clocks, pinning their exact difference.
func (r Region) ToConstraint(needFraction bool) (guard.Constraint, error) {
	var atoms []guard.Atom
	for _, c := range r.clocks.Clocks() {
		ip := r.integerParts[c.ID()]
		if r.isSaturated(c) {
			atoms = append(atoms, guard.ClockGt(c, rational.FromInt(int64(c.Kappa()))))
			continue
		}
		atoms = append(atoms, guard.ClockGeq(c, rational.FromInt(ip)))
		if r.isZeroFrac(c) {
			atoms = append(atoms, guard.ClockLeq(c, rational.FromInt(ip)))
		} else {
			atoms = append(atoms, guard.ClockGt(c, rational.FromInt(ip)))
			atoms = append(atoms, guard.ClockLt(c, rational.FromInt(ip+1)))
		}
	}

	zeroClocks := r.sortedZeroFrac()
	for idx, ci := range r.fractionOrder {
		ipi := r.integerParts[ci.ID()]
		for _, cj := range zeroClocks {
			ipj := r.integerParts[cj.ID()]
			atoms = append(atoms, guard.DiffGt(ci, cj, rational.FromInt(ipi-ipj)))
		}
		for j := 0; j < idx; j++ {
			cj := r.fractionOrder[j]
			ipj := r.integerParts[cj.ID()]
			if r.clocks.IndexOf(cj) < r.clocks.IndexOf(ci) {
				atoms = append(atoms, guard.DiffGeq(ci, cj, rational.FromInt(ipi-ipj)))
				continue
			}
			atoms = append(atoms, guard.DiffGt(ci, cj, rational.FromInt(ipi-ipj)))
		}
	}

	if needFraction {
		for i, ci := range zeroClocks {
			for j := i + 1; j < len(zeroClocks); j++ {
				cj := zeroClocks[j]
				diff := r.integerParts[ci.ID()] - r.integerParts[cj.ID()]
				atoms = append(atoms, guard.DiffLeq(ci, cj, rational.FromInt(diff)))
				atoms = append(atoms, guard.DiffGeq(ci, cj, rational.FromInt(diff)))
			}
		}
	}

	return guard.New(r.clocks, atoms...), nil
}

func (r Region) sortedZeroFrac() []clock.Clock {
	out := make([]clock.Clock, 0, len(r.zeroFrac))
	for _, c := range r.clocks.Clocks() {
		if r.isZeroFrac(c) {
			out = append(out, c)
		}
	}
	return out
}

// DelayTo computes the minimal non-negative delay that, applied to v, lands
// in r (spec.md §4.H's "alternative delay solver for a target region"): the
// pointwise maximum of each clock's per-clock minimum delay, verified
// afterwards against r.Contains.
func (r Region) DelayTo(v valuation.Valuation) (rational.Rational, error) {
	if !v.Clocks().Equal(r.clocks) {
		return rational.Rational{}, errs.New(errs.ClockSetMismatch, "DelayTo: clock sets differ")
	}
	// Per clock, the needed target is its region integer part: for a
	// zeroFrac clock this must be hit exactly; for a fractionOrder clock it
	// is the floor to reach (the fraction itself follows from whichever
	// clock ends up dictating the overall delay). Saturated clocks impose
	// no constraint: any further delay leaves them saturated.
	best := rational.Zero()
	for _, c := range r.clocks.Clocks() {
		if r.isSaturated(c) {
			continue
		}
		cur, err := v.Value(c)
		if err != nil {
			return rational.Rational{}, err
		}
		needed := rational.FromInt(r.integerParts[c.ID()])
		d, err := needed.Sub(cur)
		if err != nil {
			return rational.Rational{}, err
		}
		if d.Sign() < 0 {
			d = rational.Zero()
		}
		if best.Less(d) {
			best = d
		}
	}
	delayed, err := v.Delay(best)
	if err != nil {
		return rational.Rational{}, err
	}
	ok, err := r.Contains(delayed)
	if err != nil {
		return rational.Rational{}, err
	}
	if !ok {
		return rational.Rational{}, errs.New(errs.GuessInfeasible, "no delay from %v lands in region", v)
	}
	return best, nil
}

func (r Region) String() string {
	c, err := r.ToConstraint(true)
	if err != nil {
		return fmt.Sprintf("region<error: %v>", err)
	}
	return c.String()
}
