// Package valuation implements clock valuations: total maps from a fixed
// clock set to the non-negative rationals, with delay and reset operations
// (spec.md §4.C). The conversion to a region is region.FromValuation.
package valuation

import (
	"fmt"
	"sort"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/rational"
)

// Valuation is a total mapping from a fixed clock set (plus the implicit
// zero clock) to the non-negative rationals.
type Valuation struct {
	clocks clock.Set
	values map[int64]rational.Rational // keyed by clock ID; zero clock always reads 0
}

// Zero builds the all-zero valuation over the given clock set.
func Zero(clocks clock.Set) Valuation {
	v := Valuation{clocks: clocks, values: make(map[int64]rational.Rational)}
	for _, c := range clocks.Clocks() {
		v.values[c.ID()] = rational.Zero()
	}
	return v
}

// Clocks returns the clock set the valuation is defined over (excluding the
// implicit zero clock).
func (v Valuation) Clocks() clock.Set { return v.clocks }

// Value returns v(c). c must be the zero clock or a member of v's clock
// set, else UnknownClock.
func (v Valuation) Value(c clock.Clock) (rational.Rational, error) {
	if c.IsZero() {
		return rational.Zero(), nil
	}
	val, ok := v.values[c.ID()]
	if !ok {
		return rational.Rational{}, errs.New(errs.UnknownClock, "clock %q not in valuation domain", c.Name())
	}
	return val, nil
}

// MustValue is Value without the error return, for call sites that have
// already validated c against the clock set.
func (v Valuation) MustValue(c clock.Clock) rational.Rational {
	val, err := v.Value(c)
	if err != nil {
		panic(err)
	}
	return val
}

// Delay returns a new valuation with d added to every non-zero clock (the
// zero clock always reads 0). d must be non-negative.
func (v Valuation) Delay(d rational.Rational) (Valuation, error) {
	if d.Sign() < 0 {
		return Valuation{}, errs.New(errs.NegativeDelay, "delay %v is negative", d)
	}
	out := Valuation{clocks: v.clocks, values: make(map[int64]rational.Rational, len(v.values))}
	for id, val := range v.values {
		sum, err := val.Add(d)
		if err != nil {
			return Valuation{}, err
		}
		out.values[id] = sum
	}
	return out, nil
}

// Reset returns a new valuation with every clock in resets set to 0. Every
// clock in resets must be in v's clock set, else UnknownClock.
func (v Valuation) Reset(resets []clock.Clock) (Valuation, error) {
	out := Valuation{clocks: v.clocks, values: make(map[int64]rational.Rational, len(v.values))}
	for id, val := range v.values {
		out.values[id] = val
	}
	for _, c := range resets {
		if c.IsZero() {
			continue
		}
		if !v.clocks.Contains(c) {
			return Valuation{}, errs.New(errs.UnknownClock, "clock %q not in valuation domain", c.Name())
		}
		out.values[c.ID()] = rational.Zero()
	}
	return out, nil
}

// Fraction returns the fractional part of v(c).
func (v Valuation) Fraction(c clock.Clock) (rational.Rational, error) {
	val, err := v.Value(c)
	if err != nil {
		return rational.Rational{}, err
	}
	return val.Frac()
}

// IsFractionZero reports whether v(c) has a zero fractional part.
func (v Valuation) IsFractionZero(c clock.Clock) (bool, error) {
	val, err := v.Value(c)
	if err != nil {
		return false, err
	}
	return val.IsFracZero(), nil
}

// With returns a copy of v with c set to val, without validating
// containment; used by builders (region.BuildValuation) that construct a
// valuation clock-by-clock.
func (v Valuation) With(c clock.Clock, val rational.Rational) Valuation {
	out := Valuation{clocks: v.clocks, values: make(map[int64]rational.Rational, len(v.values)+1)}
	for id, vv := range v.values {
		out.values[id] = vv
	}
	if !c.IsZero() {
		out.values[c.ID()] = val
	}
	return out
}

// String renders the valuation as "{x=1/2, y=3}", ordered by clock ID.
func (v Valuation) String() string {
	cs := v.clocks.Clocks()
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID() < cs[j].ID() })
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, fmt.Sprintf("%s=%v", c.Name(), v.values[c.ID()]))
	}
	return fmt.Sprintf("{%s}", joinComma(parts))
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
