package guard

import (
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/valuation"
)

// bruteForceOracle decides satisfiability by evaluating a constraint
// directly against a finite sample of candidate valuations, instead of
// building a DBM. The sample is built from the constraint's own atom
// bounds, nudged by rational.EPSILON to probe both sides of every
// boundary (the same nudge the delay solver uses, spec.md §4.F/§9) plus
// one value beyond every bound to probe the unbounded-above case.
//
// This is not a general decision procedure: a genuine difference atom
// between two non-zero clocks constrains their joint fractional ordering,
// which a per-clock candidate grid does not fully explore. It exists as an
// independent, deliberately simple cross-check against dbmOracle for
// constraints with integer or simple-rational bounds (spec.md §9 calls the
// oracle out as pluggable for exactly this kind of substitution), not as a
// replacement for it.
type bruteForceOracle struct{}

// NewBruteForceOracle returns the naive sampling-based constraint oracle.
func NewBruteForceOracle() Oracle { return bruteForceOracle{} }

func (bruteForceOracle) IsSatisfiable(c Constraint) (bool, bool, error) {
	clocks := c.Clocks().Clocks()
	if len(clocks) == 0 {
		sat, err := c.IsSatisfied(valuation.Zero(c.Clocks()))
		return sat, true, err
	}
	candidates := make([][]rational.Rational, len(clocks))
	for i, cl := range clocks {
		candidates[i] = candidateValues(cl, c.Atoms())
	}
	sat, err := searchGrid(c, clocks, candidates, 0, valuation.Zero(c.Clocks()))
	if err != nil {
		return false, false, err
	}
	return sat, true, nil
}

func searchGrid(c Constraint, clocks []clock.Clock, candidates [][]rational.Rational, idx int, v valuation.Valuation) (bool, error) {
	if idx == len(clocks) {
		return c.IsSatisfied(v)
	}
	for _, val := range candidates[idx] {
		ok, err := searchGrid(c, clocks, candidates, idx+1, v.With(clocks[idx], val))
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// candidateValues builds cl's sample set: zero, every breakpoint extracted
// from an atom touching cl (its own value if cl is a single-clock atom's
// subject, or the atom's bound as a heuristic guess otherwise), each
// breakpoint nudged by +-EPSILON, and one value past the largest breakpoint.
func candidateValues(cl clock.Clock, atoms []Atom) []rational.Rational {
	seen := map[string]bool{"0": true}
	out := []rational.Rational{rational.Zero()}
	add := func(v rational.Rational) {
		if v.IsInfinite() || v.Sign() < 0 {
			return
		}
		key := v.String()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, v)
	}

	var maxSeen rational.Rational
	for _, a := range atoms {
		if a.IsDiagonal() {
			continue
		}
		var breakpoint rational.Rational
		switch {
		case a.C1.Equal(cl):
			breakpoint = a.Bound
		case a.C2.Equal(cl):
			breakpoint = a.Bound.Neg()
		default:
			continue
		}
		if breakpoint.IsInfinite() || breakpoint.Sign() < 0 {
			continue
		}
		add(breakpoint)
		if below, err := breakpoint.Sub(rational.EPSILON); err == nil && below.Sign() >= 0 {
			add(below)
		}
		if above, err := breakpoint.Add(rational.EPSILON); err == nil {
			add(above)
		}
		if breakpoint.Compare(maxSeen) > 0 {
			maxSeen = breakpoint
		}
	}
	if top, err := maxSeen.Add(rational.One()); err == nil {
		add(top)
	}
	return out
}
