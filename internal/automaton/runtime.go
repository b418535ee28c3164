package automaton

import (
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/valuation"
	"github.com/dta-learner/dta/internal/word"
)

// StepResult records the outcome of playing a single word step.
type StepResult struct {
	Accepted bool
	Reason   string // populated when Accepted is false
	Taken    Transition
	HasTaken bool
}

// snapshot captures a Runtime's replayable state.
type snapshot struct {
	location  clock.Location
	valuation valuation.Valuation
}

// Runtime plays words against a Model from a current (location, valuation)
// pair, supporting snapshot push/pop for backtracking during search
// (spec.md §4.G).
type Runtime struct {
	model     *Model
	location  clock.Location
	valuation valuation.Valuation
	stack     []snapshot
}

// NewRuntime builds a Runtime positioned at the model's initial location
// with the all-zero valuation.
func NewRuntime(m *Model) (*Runtime, error) {
	init, ok := m.Init()
	if !ok {
		return nil, errs.New(errs.UnknownLocation, "model %q has no initial location set", m.Name())
	}
	return &Runtime{model: m, location: init, valuation: valuation.Zero(m.Clocks())}, nil
}

// Location returns the runtime's current location.
func (rt *Runtime) Location() clock.Location { return rt.location }

// Valuation returns the runtime's current valuation.
func (rt *Runtime) Valuation() valuation.Valuation { return rt.valuation }

// Push saves the current state onto the snapshot stack.
func (rt *Runtime) Push() {
	rt.stack = append(rt.stack, snapshot{location: rt.location, valuation: rt.valuation})
}

// Pop restores the most recently pushed state. It is a no-op if the stack
// is empty.
func (rt *Runtime) Pop() {
	if len(rt.stack) == 0 {
		return
	}
	top := rt.stack[len(rt.stack)-1]
	rt.stack = rt.stack[:len(rt.stack)-1]
	rt.location, rt.valuation = top.location, top.valuation
}

// reset resets the runtime to the model's initial state.
func (rt *Runtime) reset() error {
	init, ok := rt.model.Init()
	if !ok {
		return errs.New(errs.UnknownLocation, "model %q has no initial location set", rt.model.Name())
	}
	rt.location = init
	rt.valuation = valuation.Zero(rt.model.Clocks())
	return nil
}

// matchingTransition finds the unique transition out of rt.location on
// action whose guard is satisfied by v. Zero matches is a rejection; more
// than one is a non-determinism rejection (the model is expected to be
// deterministic by construction, but replay must still detect a violation
// rather than pick arbitrarily).
func (rt *Runtime) matchingTransition(action clock.Action, v valuation.Valuation) (Transition, string, bool) {
	candidates := rt.model.OutgoingOn(rt.location, action)
	var matched []Transition
	for _, t := range candidates {
		ok, err := t.Guard.IsSatisfied(v)
		if err != nil || !ok {
			continue
		}
		matched = append(matched, t)
	}
	switch len(matched) {
	case 0:
		return Transition{}, "no transition with a satisfied guard", false
	case 1:
		return matched[0], "", true
	default:
		return Transition{}, "more than one transition has a satisfied guard", false
	}
}

func sameResets(a, b []clock.Clock) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ca := range a {
		found := false
		for i, cb := range b {
			if used[i] {
				continue
			}
			if ca.Equal(cb) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ExecuteDelayTimed plays a DelayTimedWord from the model's initial state.
func (rt *Runtime) ExecuteDelayTimed(w word.DelayTimedWord) ([]StepResult, bool, error) {
	if err := rt.reset(); err != nil {
		return nil, false, err
	}
	results := make([]StepResult, 0, len(w))
	for _, step := range w {
		delayed, err := rt.valuation.Delay(step.Delay)
		if err != nil {
			return results, false, err
		}
		t, reason, ok := rt.matchingTransition(step.Action, delayed)
		if !ok {
			results = append(results, StepResult{Accepted: false, Reason: reason})
			return results, false, nil
		}
		next, err := delayed.Reset(t.Resets)
		if err != nil {
			return results, false, err
		}
		rt.location, rt.valuation = t.Target, next
		results = append(results, StepResult{Accepted: true, Taken: t, HasTaken: true})
	}
	return results, rt.model.IsAccepting(rt.location), nil
}

// ExecuteClockTimed plays a ClockTimedWord from the model's initial state.
// Each step's recorded valuation is taken as the state immediately before
// the matched transition's reset.
func (rt *Runtime) ExecuteClockTimed(w word.ClockTimedWord) ([]StepResult, bool, error) {
	if err := rt.reset(); err != nil {
		return nil, false, err
	}
	results := make([]StepResult, 0, len(w))
	for _, step := range w {
		t, reason, ok := rt.matchingTransition(step.Action, step.Valuation)
		if !ok {
			results = append(results, StepResult{Accepted: false, Reason: reason})
			return results, false, nil
		}
		next, err := step.Valuation.Reset(t.Resets)
		if err != nil {
			return results, false, err
		}
		rt.location, rt.valuation = t.Target, next
		results = append(results, StepResult{Accepted: true, Taken: t, HasTaken: true})
	}
	return results, rt.model.IsAccepting(rt.location), nil
}

// ExecuteResetDelayTimed plays a reset-annotated delay-timed word, rejecting
// a step whose recorded reset set disagrees with the matched transition's
// actual resets.
func (rt *Runtime) ExecuteResetDelayTimed(w word.ResetDelayTimedWord) ([]StepResult, bool, error) {
	if err := rt.reset(); err != nil {
		return nil, false, err
	}
	results := make([]StepResult, 0, len(w))
	for _, step := range w {
		delayed, err := rt.valuation.Delay(step.Delay)
		if err != nil {
			return results, false, err
		}
		t, reason, ok := rt.matchingTransition(step.Action, delayed)
		if !ok {
			results = append(results, StepResult{Accepted: false, Reason: reason})
			return results, false, nil
		}
		if !sameResets(t.Resets, step.Resets) {
			results = append(results, StepResult{Accepted: false, Reason: "reset mismatch"})
			return results, false, nil
		}
		next, err := delayed.Reset(t.Resets)
		if err != nil {
			return results, false, err
		}
		rt.location, rt.valuation = t.Target, next
		results = append(results, StepResult{Accepted: true, Taken: t, HasTaken: true})
	}
	return results, rt.model.IsAccepting(rt.location), nil
}

// ExecuteResetClockTimed plays a reset-annotated clock-timed word, rejecting
// a step whose recorded reset set disagrees with the matched transition's
// actual resets.
func (rt *Runtime) ExecuteResetClockTimed(w word.ResetClockTimedWord) ([]StepResult, bool, error) {
	if err := rt.reset(); err != nil {
		return nil, false, err
	}
	results := make([]StepResult, 0, len(w))
	for _, step := range w {
		t, reason, ok := rt.matchingTransition(step.Action, step.Valuation)
		if !ok {
			results = append(results, StepResult{Accepted: false, Reason: reason})
			return results, false, nil
		}
		if !sameResets(t.Resets, step.Resets) {
			results = append(results, StepResult{Accepted: false, Reason: "reset mismatch"})
			return results, false, nil
		}
		next, err := step.Valuation.Reset(t.Resets)
		if err != nil {
			return results, false, err
		}
		rt.location, rt.valuation = t.Target, next
		results = append(results, StepResult{Accepted: true, Taken: t, HasTaken: true})
	}
	return results, rt.model.IsAccepting(rt.location), nil
}
