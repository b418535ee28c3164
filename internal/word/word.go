// Package word implements the six timed-word representations played
// against a DTA and exchanged with the teacher (spec.md §4.I): delay-timed,
// clock-timed, and region-timed words, each with a reset-annotated
// counterpart, plus the conversions between them.
package word

import (
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/region"
	"github.com/dta-learner/dta/internal/valuation"
)

// DelayStep is one (action, delay) pair.
type DelayStep struct {
	Action clock.Action
	Delay  rational.Rational
}

// DelayTimedWord is a sequence of (action, delay) steps.
type DelayTimedWord []DelayStep

// ClockStep is one (action, valuation) pair: the valuation immediately
// before the step's reset is applied.
type ClockStep struct {
	Action    clock.Action
	Valuation valuation.Valuation
}

// ClockTimedWord is a sequence of (action, valuation) steps.
type ClockTimedWord []ClockStep

// RegionStep is one (action, region) pair.
type RegionStep struct {
	Action clock.Action
	Region region.Region
}

// RegionTimedWord is a sequence of (action, region) steps.
type RegionTimedWord []RegionStep

// ResetDelayStep is a DelayStep annotated with the resets applied after the
// delay elapses.
type ResetDelayStep struct {
	Action clock.Action
	Delay  rational.Rational
	Resets []clock.Clock
}

// ResetDelayTimedWord is a sequence of reset-annotated delay steps.
type ResetDelayTimedWord []ResetDelayStep

// ResetClockStep is a ClockStep annotated with the resets applied after the
// recorded valuation.
type ResetClockStep struct {
	Action    clock.Action
	Valuation valuation.Valuation
	Resets    []clock.Clock
}

// ResetClockTimedWord is a sequence of reset-annotated clock steps.
type ResetClockTimedWord []ResetClockStep

// ResetRegionStep is a RegionStep annotated with the resets applied after
// reaching the recorded region.
type ResetRegionStep struct {
	Action clock.Action
	Region region.Region
	Resets []clock.Clock
}

// ResetRegionTimedWord is a sequence of reset-annotated region steps.
type ResetRegionTimedWord []ResetRegionStep

// Plain drops the reset annotations, recovering the underlying DelayTimedWord.
func (w ResetDelayTimedWord) Plain() DelayTimedWord {
	out := make(DelayTimedWord, len(w))
	for i, s := range w {
		out[i] = DelayStep{Action: s.Action, Delay: s.Delay}
	}
	return out
}

// Plain drops the reset annotations, recovering the underlying ClockTimedWord.
func (w ResetClockTimedWord) Plain() ClockTimedWord {
	out := make(ClockTimedWord, len(w))
	for i, s := range w {
		out[i] = ClockStep{Action: s.Action, Valuation: s.Valuation}
	}
	return out
}

// Plain drops the reset annotations, recovering the underlying RegionTimedWord.
func (w ResetRegionTimedWord) Plain() RegionTimedWord {
	out := make(RegionTimedWord, len(w))
	for i, s := range w {
		out[i] = RegionStep{Action: s.Action, Region: s.Region}
	}
	return out
}

// FinalValuation returns the valuation reached immediately after playing w
// in full, i.e. after the last step's reset. The empty word's final
// valuation is the all-zero valuation.
func (w ResetClockTimedWord) FinalValuation(clocks clock.Set) (valuation.Valuation, error) {
	if len(w) == 0 {
		return valuation.Zero(clocks), nil
	}
	last := w[len(w)-1]
	return last.Valuation.Reset(last.Resets)
}

// Extend appends one more reset-clock step to w: delay by d from w's final
// valuation, label it action, and record resets. Used by the observation
// table to build one-step extensions and reset-guess continuations.
func (w ResetClockTimedWord) Extend(clocks clock.Set, action clock.Action, d rational.Rational, resets []clock.Clock) (ResetClockTimedWord, error) {
	cur, err := w.FinalValuation(clocks)
	if err != nil {
		return nil, err
	}
	delayed, err := cur.Delay(d)
	if err != nil {
		return nil, err
	}
	out := make(ResetClockTimedWord, len(w)+1)
	copy(out, w)
	out[len(w)] = ResetClockStep{Action: action, Valuation: delayed, Resets: resets}
	return out, nil
}

func containsClock(resets []clock.Clock, c clock.Clock) bool {
	for _, r := range resets {
		if r.Equal(c) {
			return true
		}
	}
	return false
}

// ToResetClockTimed converts a reset-delay-timed word into a reset-clock-
// timed one by accumulating valuation via delay-then-reset, over clocks,
// annotating each step with the valuation reached immediately before its
// reset is applied (spec.md §4.I).
func (w ResetDelayTimedWord) ToResetClockTimed(clocks clock.Set) (ResetClockTimedWord, error) {
	out := make(ResetClockTimedWord, len(w))
	cur := valuation.Zero(clocks)
	for i, step := range w {
		delayed, err := cur.Delay(step.Delay)
		if err != nil {
			return nil, err
		}
		out[i] = ResetClockStep{Action: step.Action, Valuation: delayed, Resets: step.Resets}
		next, err := delayed.Reset(step.Resets)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return out, nil
}

// ToResetDelayTimed converts a reset-clock-timed word into a reset-delay-
// timed one by recovering each step's delay from the non-reset clocks'
// advance since the previous (post-reset) valuation. All non-reset clocks
// must agree on the inferred delay and it must be non-negative, else
// InconsistentTiming (spec.md §4.I). A step that resets every clock carries
// no recoverable information; its delay is reported as 0.
func (w ResetClockTimedWord) ToResetDelayTimed(clocks clock.Set) (ResetDelayTimedWord, error) {
	out := make(ResetDelayTimedWord, len(w))
	prevPostReset := valuation.Zero(clocks)
	for i, step := range w {
		var delay rational.Rational
		haveDelay := false
		for _, c := range clocks.Clocks() {
			if containsClock(step.Resets, c) {
				continue
			}
			before, err := prevPostReset.Value(c)
			if err != nil {
				return nil, err
			}
			after, err := step.Valuation.Value(c)
			if err != nil {
				return nil, err
			}
			d, err := after.Sub(before)
			if err != nil {
				return nil, err
			}
			if !haveDelay {
				delay, haveDelay = d, true
				continue
			}
			if !d.Equal(delay) {
				return nil, errs.New(errs.InconsistentTiming,
					"step %d: clock %q implies delay %v, inconsistent with %v", i, c.Name(), d, delay)
			}
		}
		if !haveDelay {
			delay = rational.Zero()
		}
		if delay.Sign() < 0 {
			return nil, errs.New(errs.InconsistentTiming, "step %d: inferred delay %v is negative", i, delay)
		}
		out[i] = ResetDelayStep{Action: step.Action, Delay: delay, Resets: step.Resets}
		next, err := step.Valuation.Reset(step.Resets)
		if err != nil {
			return nil, err
		}
		prevPostReset = next
	}
	return out, nil
}

// ToResetClockTimed converts a region-timed word plus a parallel reset
// sequence into a reset-clock-timed word, by solving for the minimal delay
// landing in each step's target region via the region delay solver,
// starting from the all-zero valuation. Fails if any step has no valid
// delay, or if resets has a different length than w (spec.md §4.I).
func (w RegionTimedWord) ToResetClockTimed(clocks clock.Set, resets [][]clock.Clock) (ResetClockTimedWord, error) {
	return w.ToResetClockTimedFrom(clocks, valuation.Zero(clocks), resets)
}

// ToResetClockTimedFrom is ToResetClockTimed starting from an arbitrary
// valuation rather than the all-zero one, used by the observation table's
// suffix filling (spec.md §4.J), which applies a region-timed suffix after
// whatever valuation a prefix word has already reached.
func (w RegionTimedWord) ToResetClockTimedFrom(clocks clock.Set, start valuation.Valuation, resets [][]clock.Clock) (ResetClockTimedWord, error) {
	if len(resets) != len(w) {
		return nil, errs.New(errs.InconsistentTiming, "region-timed word has %d steps but %d reset sets were given", len(w), len(resets))
	}
	out := make(ResetClockTimedWord, len(w))
	cur := start
	for i, step := range w {
		d, err := step.Region.DelayTo(cur)
		if err != nil {
			return nil, err
		}
		delayed, err := cur.Delay(d)
		if err != nil {
			return nil, err
		}
		out[i] = ResetClockStep{Action: step.Action, Valuation: delayed, Resets: resets[i]}
		next, err := delayed.Reset(resets[i])
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return out, nil
}
