package automaton

import (
	"fmt"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/word"
)

func guardsEqual(a, b guard.Constraint) bool { return a.String() == b.String() }

// unionGuard returns the DNF disjunction of ts' guards.
func unionGuard(clocks clock.Set, ts []Transition) guard.DisjunctiveConstraint {
	out := guard.FalseDNF(clocks)
	for _, t := range ts {
		out = out.Or(guard.NewDNF(clocks, t.Guard))
	}
	return out
}

// IsComplete reports whether every (non-sink location, action) pair has an
// outgoing-guard disjunction covering the whole non-negative orthant
// (spec.md §4.G). An oracle Unknown answer is treated conservatively as
// "not complete".
func (m *Model) IsComplete(oracle guard.Oracle) (bool, error) {
	nonneg := guard.TrueConstraint(m.clocks)
	for _, l := range m.Locations() {
		if l.IsSink() {
			continue
		}
		for _, a := range m.alphabet.Actions() {
			ts := m.OutgoingOn(l, a)
			union := unionGuard(m.clocks, ts)
			negUnion, err := union.Negate()
			if err != nil {
				return false, err
			}
			uncovered, err := negUnion.AndConstraint(nonneg)
			if err != nil {
				return false, err
			}
			sat, err := uncovered.IsSatisfiable(oracle)
			if err != nil {
				if errs.OfKind(err, errs.OracleUnknown) {
					return false, nil
				}
				return false, err
			}
			if sat {
				return false, nil
			}
		}
	}
	return true, nil
}

// ToCTA returns a complete automaton equivalent to m: if m is already
// complete, a copy; otherwise a copy with a sink location and, for every
// (location, action) pair, transitions covering whatever guard space was
// uncovered (spec.md §4.G).
func (m *Model) ToCTA(oracle guard.Oracle) (*Model, error) {
	complete, err := m.IsComplete(oracle)
	if err != nil {
		return nil, err
	}
	out := m.Copy()
	if complete {
		return out, nil
	}
	sink := out.EnsureSink("sink")
	nonneg := guard.TrueConstraint(out.clocks)
	allClocks := out.clocks.Clocks()

	for _, l := range out.Locations() {
		for _, a := range out.alphabet.Actions() {
			ts := out.OutgoingOn(l, a)
			if len(ts) == 0 {
				if _, err := out.AddTransition(l, a, guard.TrueConstraint(out.clocks), nil, sink); err != nil {
					return nil, err
				}
				continue
			}
			union := unionGuard(out.clocks, ts)
			negUnion, err := union.Negate()
			if err != nil {
				return nil, err
			}
			uncoveredBase, err := negUnion.AndConstraint(nonneg)
			if err != nil {
				return nil, err
			}
			disjoint, err := uncoveredBase.NegateDisjoint(oracle)
			if err != nil {
				return nil, err
			}
			for _, piece := range disjoint.Disjuncts() {
				sat, err := piece.IsSatisfiable(oracle)
				if err != nil {
					if errs.OfKind(err, errs.OracleUnknown) {
						continue
					}
					return nil, err
				}
				if !sat {
					continue
				}
				exists := false
				for _, existing := range out.OutgoingOn(l, a) {
					if existing.Target.Equal(sink) && guardsEqual(existing.Guard, piece) {
						exists = true
						break
					}
				}
				if exists {
					continue
				}
				if _, err := out.AddTransition(l, a, piece, allClocks, sink); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}

// IsDeterministic reports whether every pair of distinct outgoing
// transitions sharing a (location, action) pair has mutually unsatisfiable
// guards (spec.md §4.G). An oracle Unknown answer is treated conservatively
// as "not deterministic", since the oracle could not rule out overlap.
func (m *Model) IsDeterministic(oracle guard.Oracle) (bool, error) {
	for _, l := range m.Locations() {
		for _, a := range m.alphabet.Actions() {
			ts := m.OutgoingOn(l, a)
			for i := 0; i < len(ts); i++ {
				for j := i + 1; j < len(ts); j++ {
					combined, err := ts[i].Guard.And(ts[j].Guard)
					if err != nil {
						return false, err
					}
					sat, err := combined.IsSatisfiable(oracle)
					if err != nil {
						if errs.OfKind(err, errs.OracleUnknown) {
							return false, nil
						}
						return false, err
					}
					if sat {
						return false, nil
					}
				}
			}
		}
	}
	return true, nil
}

// Complement returns ToCTA(m) with the accepting set flipped.
func (m *Model) Complement(oracle guard.Oracle) (*Model, error) {
	out, err := m.ToCTA(oracle)
	if err != nil {
		return nil, err
	}
	flipped := make(map[int64]bool)
	for _, l := range out.Locations() {
		if !out.IsAccepting(l) {
			flipped[l.ID()] = true
		}
	}
	out.accepting = flipped
	return out, nil
}

// Product computes the synchronised product (intersection) of m and other:
// a BFS over location pairs reachable under shared actions, forming a joint
// guard over the union clock set per transition pair and keeping only
// satisfiable combinations (spec.md §4.H). Both automata are expected to
// share the same clock identities (the typical case: hypothesis vs. target
// within one learner run); a disjoint clock set still works, it simply adds
// every clock from both sides to the product with no cross-constraint.
func (m *Model) Product(other *Model, oracle guard.Oracle) (*Model, error) {
	unionClocks := clock.NewSet(append(append([]clock.Clock{}, m.clocks.Clocks()...), other.clocks.Clocks()...)...)
	unionAlphabet := clock.NewAlphabet()
	for _, a := range m.alphabet.Actions() {
		unionAlphabet.CreateAction(a.Name())
	}
	for _, a := range other.alphabet.Actions() {
		unionAlphabet.CreateAction(a.Name())
	}
	out := NewModel(m.name+" x "+other.name, unionClocks, unionAlphabet)

	initA, okA := m.Init()
	initB, okB := other.Init()
	if !okA || !okB {
		return nil, errs.New(errs.UnknownLocation, "both automata must have an initial location to compute a product")
	}

	type pairKey struct{ a, b int64 }
	locOf := make(map[pairKey]clock.Location)

	makePairLoc := func(a, b clock.Location) clock.Location {
		l := out.NewLocation(fmt.Sprintf("(%s,%s)", a.Label(), b.Label()))
		locOf[pairKey{a.ID(), b.ID()}] = l
		if m.IsAccepting(a) && other.IsAccepting(b) {
			out.SetAccepting(l)
		}
		return l
	}

	initLoc := makePairLoc(initA, initB)
	out.SetInit(initLoc)

	type queued struct{ a, b clock.Location }
	queue := []queued{{initA, initB}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curLoc := locOf[pairKey{cur.a.ID(), cur.b.ID()}]
		for _, act := range unionAlphabet.Actions() {
			for _, t1 := range m.OutgoingOn(cur.a, act) {
				for _, t2 := range other.OutgoingOn(cur.b, act) {
					atoms := append(append([]guard.Atom{}, t1.Guard.Atoms()...), t2.Guard.Atoms()...)
					joint := guard.New(unionClocks, atoms...)
					sat, err := joint.IsSatisfiable(oracle)
					if err != nil {
						if errs.OfKind(err, errs.OracleUnknown) {
							continue
						}
						return nil, err
					}
					if !sat {
						continue
					}
					key := pairKey{t1.Target.ID(), t2.Target.ID()}
					targetLoc, ok := locOf[key]
					if !ok {
						targetLoc = makePairLoc(t1.Target, t2.Target)
						queue = append(queue, queued{t1.Target, t2.Target})
					}
					resets := append(append([]clock.Clock{}, t1.Resets...), t2.Resets...)
					if _, err := out.AddTransition(curLoc, act, joint, resets, targetLoc); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return out, nil
}

// Equivalent reports whether m and other accept the same language, by
// checking that both L(m)∩L(¬other) and L(other)∩L(¬m) are empty. If not,
// it returns a witness word in the symmetric difference.
func Equivalent(m, other *Model, oracle guard.Oracle) (bool, word.DelayTimedWord, error) {
	notOther, err := other.Complement(oracle)
	if err != nil {
		return false, nil, err
	}
	diff1, err := m.Product(notOther, oracle)
	if err != nil {
		return false, nil, err
	}
	w, found, err := FindWitness(diff1, oracle)
	if err != nil {
		return false, nil, err
	}
	if found {
		return false, w, nil
	}

	notM, err := m.Complement(oracle)
	if err != nil {
		return false, nil, err
	}
	diff2, err := other.Product(notM, oracle)
	if err != nil {
		return false, nil, err
	}
	w2, found2, err := FindWitness(diff2, oracle)
	if err != nil {
		return false, nil, err
	}
	if found2 {
		return false, w2, nil
	}
	return true, nil, nil
}
