package automaton

import (
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/dbm"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/valuation"
	"github.com/dta-learner/dta/internal/word"
)

// intersectGuard tightens d with g's atoms, the same atom-to-bound mapping
// the DBM constraint oracle uses (internal/guard/oracle.go), but returning
// the resulting zone itself rather than a single satisfiability bit: the
// witness search needs to keep exploring the surviving zone, not just know
// whether one exists.
func intersectGuard(d *dbm.DBM, g guard.Constraint) (*dbm.DBM, error) {
	out := d
	for _, a := range g.Atoms() {
		if a.IsDiagonal() {
			if a.DiagonalContradiction() {
				idx := out.Index(a.C1)
				out = out.IntersectBound(idx, idx, dbm.Lt(rational.Zero()))
			}
			continue
		}
		i := out.Index(a.C1)
		j := out.Index(a.C2)
		if i < 0 || j < 0 {
			return nil, errs.New(errs.ClockSetMismatch, "guard atom references a clock outside the DBM's clock set")
		}
		var b dbm.Bound
		if a.Closed {
			b = dbm.Leq(a.Bound)
		} else {
			b = dbm.Lt(a.Bound)
		}
		out = out.IntersectBound(i, j, b)
	}
	return out, nil
}

// zoneNode is one entry of the BFS search tree: the (location, zone) pair
// it represents, and the predecessor edge that reached it (used to
// reconstruct the witness once an accepting node is found).
type zoneNode struct {
	loc       clock.Location
	zone      *dbm.DBM
	parent    int
	via       Transition
	hasParent bool
}

// FindWitness searches for a concrete DelayTimedWord accepted by m, via
// zone-based BFS over (location, DBM) pairs pruned by DBM inclusion
// (spec.md §4.H). It returns found=false if m's language is empty.
func FindWitness(m *Model, oracle guard.Oracle) (word.DelayTimedWord, bool, error) {
	init, ok := m.Init()
	if !ok {
		return nil, false, errs.New(errs.UnknownLocation, "model %q has no initial location set", m.Name())
	}
	initZone := dbm.Initial(m.Clocks())
	nodes := []zoneNode{{loc: init, zone: initZone}}
	passed := map[int64][]*dbm.DBM{init.ID(): {initZone}}

	if m.IsAccepting(init) {
		w, err := reconstructWitness(nodes, 0, m)
		return w, true, err
	}

	queue := []int{0}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		cur := nodes[idx]
		for _, t := range m.Outgoing(cur.loc) {
			zone := cur.zone.Copy().Future()
			zone, err := intersectGuard(zone, t.Guard)
			if err != nil {
				return nil, false, err
			}
			zone = zone.Canonical()
			if zone.IsEmpty() {
				continue
			}
			zone, err = zone.ResetAll(t.Resets)
			if err != nil {
				return nil, false, err
			}
			zone = zone.Future()
			if zone.IsEmpty() {
				continue
			}

			covered := false
			for _, p := range passed[t.Target.ID()] {
				inc, err := p.Include(zone)
				if err != nil {
					return nil, false, err
				}
				if inc {
					covered = true
					break
				}
			}
			if covered {
				continue
			}
			var kept []*dbm.DBM
			for _, p := range passed[t.Target.ID()] {
				inc, err := zone.Include(p)
				if err != nil {
					return nil, false, err
				}
				if !inc {
					kept = append(kept, p)
				}
			}
			passed[t.Target.ID()] = append(kept, zone)

			newIdx := len(nodes)
			nodes = append(nodes, zoneNode{loc: t.Target, zone: zone, parent: idx, via: t, hasParent: true})
			if m.IsAccepting(t.Target) {
				w, err := reconstructWitness(nodes, newIdx, m)
				return w, true, err
			}
			queue = append(queue, newIdx)
		}
	}
	return nil, false, nil
}

// reconstructWitness walks the predecessor chain from idx back to the root,
// then forward-simulates with exact delays (solveDelay) to produce a
// concrete DelayTimedWord.
func reconstructWitness(nodes []zoneNode, idx int, m *Model) (word.DelayTimedWord, error) {
	var transitions []Transition
	for i := idx; nodes[i].hasParent; i = nodes[i].parent {
		transitions = append(transitions, nodes[i].via)
	}
	for l, r := 0, len(transitions)-1; l < r; l, r = l+1, r-1 {
		transitions[l], transitions[r] = transitions[r], transitions[l]
	}
	out := make(word.DelayTimedWord, 0, len(transitions))
	v := valuation.Zero(m.Clocks())
	for _, t := range transitions {
		d, err := solveDelay(v, t.Guard)
		if err != nil {
			return nil, err
		}
		delayed, err := v.Delay(d)
		if err != nil {
			return nil, err
		}
		out = append(out, word.DelayStep{Action: t.Action, Delay: d})
		next, err := delayed.Reset(t.Resets)
		if err != nil {
			return nil, err
		}
		v = next
	}
	return out, nil
}

// solveDelay finds a concrete non-negative delay d such that v.Delay(d)
// satisfies g, by combining every atom's contribution into a lower/upper
// bound on d (spec.md §4.F). Atoms relating two non-zero clocks are
// delay-invariant and are checked directly against v instead.
func solveDelay(v valuation.Valuation, g guard.Constraint) (rational.Rational, error) {
	low, lowClosed := rational.Zero(), true
	high, highClosed := rational.PosInf(), false

	for _, a := range g.Atoms() {
		switch {
		case a.IsDiagonal():
			if a.DiagonalContradiction() {
				return rational.Rational{}, errs.New(errs.GuessInfeasible, "guard contains a contradictory atom")
			}
		case !a.C1.IsZero() && !a.C2.IsZero():
			ok, err := a.IsSatisfied(v)
			if err != nil {
				return rational.Rational{}, err
			}
			if !ok {
				return rational.Rational{}, errs.New(errs.GuessInfeasible, "difference atom %v already violated and is delay-invariant", a)
			}
		case !a.C1.IsZero() && a.C2.IsZero():
			// c1 <= V or c1 < V: upper bound v(c1)+d <= V.
			cur, err := v.Value(a.C1)
			if err != nil {
				return rational.Rational{}, err
			}
			bound, err := a.Bound.Sub(cur)
			if err != nil {
				return rational.Rational{}, err
			}
			if bound.Less(high) || (bound.Equal(high) && !a.Closed && highClosed) {
				high, highClosed = bound, a.Closed
			} else if bound.Equal(high) && !a.Closed {
				highClosed = false
			}
		default: // a.C1.IsZero() && !a.C2.IsZero(): x0-c2 <= V => v(c2)+d >= -V.
			cur, err := v.Value(a.C2)
			if err != nil {
				return rational.Rational{}, err
			}
			bound, err := a.Bound.Neg().Sub(cur)
			if err != nil {
				return rational.Rational{}, err
			}
			if low.Less(bound) || (bound.Equal(low) && !a.Closed && lowClosed) {
				low, lowClosed = bound, a.Closed
			} else if bound.Equal(low) && !a.Closed {
				lowClosed = false
			}
		}
	}

	if low.Sign() < 0 {
		low, lowClosed = rational.Zero(), true
	}

	cmp := low.Compare(high)
	if cmp > 0 || (cmp == 0 && (!lowClosed || !highClosed)) {
		return rational.Rational{}, errs.New(errs.GuessInfeasible, "no delay in [%v, %v] satisfies the guard", low, high)
	}
	if lowClosed {
		return low, nil
	}
	// Strict lower bound: prefer the exact midpoint of a bounded-open
	// interval over an arbitrary epsilon nudge (spec.md §4.F/§9 open
	// question), since the midpoint is guaranteed strictly interior without
	// relying on EPSILON being "small enough". EPSILON is the fallback for
	// an unbounded-above interval, where there is no finite upper endpoint
	// to average against.
	if high.IsInfinite() {
		d, err := low.Add(rational.EPSILON)
		if err != nil {
			return rational.Rational{}, err
		}
		return d, nil
	}
	sum, err := low.Add(high)
	if err != nil {
		return rational.Rational{}, err
	}
	mid, err := sum.Div(rational.FromInt(2))
	if err != nil {
		return rational.Rational{}, err
	}
	dcmp := mid.Compare(high)
	if dcmp > 0 || (dcmp == 0 && !highClosed) {
		return rational.Rational{}, errs.New(errs.GuessInfeasible, "strict lower bound leaves no room below upper bound %v", high)
	}
	return mid, nil
}
