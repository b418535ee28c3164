// Package automaton implements the deterministic timed automaton (DTA)
// model and the algorithms layered on it: completeness and determinism
// analysis, completion to a complete automaton via a sink, complement,
// synchronised product, and DBM-based emptiness-witness search (spec.md
// §4.G/§4.H).
package automaton

import (
	"sync"
	"sync/atomic"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/guard"
)

var transitionIDCounter atomic.Int64

func nextTransitionID() int64 { return transitionIDCounter.Add(1) }

// Transition is a 5-tuple (source, action, guard, resets, target).
// Equality is by ID.
type Transition struct {
	id      int64
	Source  clock.Location
	Action  clock.Action
	Guard   guard.Constraint
	Resets  []clock.Clock
	Target  clock.Location
}

// NewTransition allocates a fresh transition.
func NewTransition(source clock.Location, action clock.Action, g guard.Constraint, resets []clock.Clock, target clock.Location) Transition {
	return Transition{id: nextTransitionID(), Source: source, Action: action, Guard: g, Resets: resets, Target: target}
}

// ID returns the transition's stable identity.
func (t Transition) ID() int64 { return t.id }

// Equal reports whether t and other are the same transition.
func (t Transition) Equal(other Transition) bool { return t.id == other.id }

func (t Transition) String() string {
	return t.Source.Label() + " --[" + t.Action.Name() + ", " + t.Guard.String() + "]--> " + t.Target.Label()
}

// Model holds the structural state of a DTA: clocks, alphabet, locations,
// accepting locations, transitions, and the bidirectional/action indices
// used by every algorithm built on top of it. Mutations invalidate the
// lazily-computed max-constant cache.
type Model struct {
	mu sync.RWMutex

	name       string
	clocks     clock.Set
	alphabet   *clock.Alphabet
	locations  []clock.Location
	accepting  map[int64]bool
	sink       *clock.Location
	init       *clock.Location
	transitions []Transition

	outgoing map[int64][]Transition // by source location ID
	incoming map[int64][]Transition // by target location ID
	byAction map[int64][]Transition // by action ID

	maxConstantValid bool
	maxConstant      int
}

// NewModel builds an empty DTA model over the given clocks and alphabet.
func NewModel(name string, clocks clock.Set, alphabet *clock.Alphabet) *Model {
	return &Model{
		name:     name,
		clocks:   clocks,
		alphabet: alphabet,
		accepting: make(map[int64]bool),
		outgoing: make(map[int64][]Transition),
		incoming: make(map[int64][]Transition),
		byAction: make(map[int64][]Transition),
	}
}

// Name returns the model's display name.
func (m *Model) Name() string { return m.name }

// Clocks returns the model's clock set.
func (m *Model) Clocks() clock.Set { return m.clocks }

// Alphabet returns the model's alphabet.
func (m *Model) Alphabet() *clock.Alphabet { return m.alphabet }

// AddLocation registers a location (must have been created by the same
// clock.LocationFactory used elsewhere in the model).
func (m *Model) AddLocation(l clock.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append(m.locations, l)
	if l.IsSink() {
		sink := l
		m.sink = &sink
	}
}

// Locations returns every location registered in the model.
func (m *Model) Locations() []clock.Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]clock.Location, len(m.locations))
	copy(out, m.locations)
	return out
}

// Sink returns the model's sink location, if one has been registered.
func (m *Model) Sink() (clock.Location, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sink == nil {
		return clock.Location{}, false
	}
	return *m.sink, true
}

// SetInit designates l as the model's initial location.
func (m *Model) SetInit(l clock.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	init := l
	m.init = &init
}

// Init returns the model's initial location.
func (m *Model) Init() (clock.Location, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.init == nil {
		return clock.Location{}, false
	}
	return *m.init, true
}

// SetAccepting marks l as an accepting location.
func (m *Model) SetAccepting(l clock.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepting[l.ID()] = true
}

// IsAccepting reports whether l is accepting.
func (m *Model) IsAccepting(l clock.Location) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accepting[l.ID()]
}

var locationFactory clock.LocationFactory

// NewLocation allocates and registers a fresh non-sink location.
func (m *Model) NewLocation(label string) clock.Location {
	l := locationFactory.NewLocation(label)
	m.AddLocation(l)
	return l
}

// EnsureSink returns the model's sink location, creating and registering one
// with the given label if it does not yet exist.
func (m *Model) EnsureSink(label string) clock.Location {
	if sink, ok := m.Sink(); ok {
		return sink
	}
	sink := locationFactory.NewSink(label)
	m.AddLocation(sink)
	return sink
}

func (m *Model) hasLocation(l clock.Location) bool {
	for _, existing := range m.locations {
		if existing.Equal(l) {
			return true
		}
	}
	return false
}

// AddTransition registers a transition; fails with UnknownLocation if
// source or target is not in the model, or UnknownAction if action was not
// created via the model's alphabet.
func (m *Model) AddTransition(source clock.Location, action clock.Action, g guard.Constraint, resets []clock.Clock, target clock.Location) (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasLocation(source) {
		return Transition{}, errs.New(errs.UnknownLocation, "source location %q not registered", source.Label())
	}
	if !m.hasLocation(target) {
		return Transition{}, errs.New(errs.UnknownLocation, "target location %q not registered", target.Label())
	}
	if !m.alphabet.Contains(action.Name()) {
		return Transition{}, errs.New(errs.UnknownAction, "action %q not registered in alphabet", action.Name())
	}
	t := NewTransition(source, action, g, resets, target)
	m.transitions = append(m.transitions, t)
	m.outgoing[source.ID()] = append(m.outgoing[source.ID()], t)
	m.incoming[target.ID()] = append(m.incoming[target.ID()], t)
	m.byAction[action.ID()] = append(m.byAction[action.ID()], t)
	m.maxConstantValid = false
	return t, nil
}

// Transitions returns every transition in the model.
func (m *Model) Transitions() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// Outgoing returns the transitions leaving l.
func (m *Model) Outgoing(l clock.Location) []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transition, len(m.outgoing[l.ID()]))
	copy(out, m.outgoing[l.ID()])
	return out
}

// Incoming returns the transitions arriving at l.
func (m *Model) Incoming(l clock.Location) []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transition, len(m.incoming[l.ID()]))
	copy(out, m.incoming[l.ID()])
	return out
}

// OutgoingOn returns the transitions leaving l labelled by action.
func (m *Model) OutgoingOn(l clock.Location, action clock.Action) []Transition {
	var out []Transition
	for _, t := range m.Outgoing(l) {
		if t.Action.Equal(action) {
			out = append(out, t)
		}
	}
	return out
}

// MaxConstant returns the largest integer bound appearing in any guard's
// atoms, lazily computed and cached until the next mutation.
func (m *Model) MaxConstant() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxConstantValid {
		return m.maxConstant
	}
	max := 0
	for _, t := range m.transitions {
		for _, a := range t.Guard.Atoms() {
			if a.Bound.IsInfinite() {
				continue
			}
			if a.Bound.IsInteger() {
				if v, err := a.Bound.FloorInt(); err == nil {
					iv := int(v)
					if iv < 0 {
						iv = -iv
					}
					if iv > max {
						max = iv
					}
				}
			}
		}
	}
	m.maxConstant = max
	m.maxConstantValid = true
	return max
}

// Copy returns a deep, independent clone of m (locations, transitions, and
// accepting set are copied; clocks/alphabet are shared since they are
// immutable once allocated).
func (m *Model) Copy() *Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := NewModel(m.name, m.clocks, m.alphabet)
	out.locations = append(out.locations, m.locations...)
	if m.sink != nil {
		sink := *m.sink
		out.sink = &sink
	}
	if m.init != nil {
		init := *m.init
		out.init = &init
	}
	for id := range m.accepting {
		out.accepting[id] = true
	}
	for _, t := range m.transitions {
		out.transitions = append(out.transitions, t)
		out.outgoing[t.Source.ID()] = append(out.outgoing[t.Source.ID()], t)
		out.incoming[t.Target.ID()] = append(out.incoming[t.Target.ID()], t)
		out.byAction[t.Action.ID()] = append(out.byAction[t.Action.ID()], t)
	}
	return out
}
