package table

import (
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/region"
	"github.com/dta-learner/dta/internal/valuation"
	"github.com/dta-learner/dta/internal/word"
)

// PartitionEntry is one disjunct of the recovered guard for one observed
// post-transition valuation, paired with the resets and successor-row
// prefix that produced it.
type PartitionEntry struct {
	Source word.ResetClockTimedWord
	Resets []clock.Clock
	Guard  guard.Constraint
}

// Partition recovers pairwise-disjoint guards from Ψ, the set of observed
// post-transition valuations for one (location, action) pair (spec.md
// §4.J's partition function). Each input valuation yields one or more
// PartitionEntry values (one per disjunct of its recovered guard Iᵢ).
func Partition(clocks clock.Set, psi []valuationWithResets) ([]PartitionEntry, error) {
	n := len(psi)
	if n == 0 {
		return nil, nil
	}
	nonneg := guard.TrueConstraint(clocks)

	exceeds := make([]bool, n)
	A := make([]guard.Constraint, n)
	for i, vi := range psi {
		r, err := region.FromValuation(vi.valuation, clocks)
		if err != nil {
			return nil, err
		}
		ex, err := anyExceedsKappa(vi.valuation, clocks)
		if err != nil {
			return nil, err
		}
		exceeds[i] = ex
		if ex {
			c, err := r.ToConstraint(false)
			if err != nil {
				return nil, err
			}
			A[i] = c
		} else {
			A[i] = guard.FalseConstraint(clocks)
		}
	}

	U0 := guard.FalseDNF(clocks)
	for _, a := range A {
		U0 = U0.Or(guard.NewDNF(clocks, a))
	}

	U := make([]guard.Constraint, n)
	for i, vi := range psi {
		atoms, err := unitCubeAtoms(vi.valuation, clocks)
		if err != nil {
			return nil, err
		}
		U[i] = guard.New(clocks, atoms...)
	}

	W := make([]guard.DisjunctiveConstraint, n)
	unionLater := U0
	for i := n - 1; i >= 0; i-- {
		negUnion, err := unionLater.Negate()
		if err != nil {
			return nil, err
		}
		wi, err := negUnion.AndConstraint(U[i])
		if err != nil {
			return nil, err
		}
		W[i] = wi
		unionLater = unionLater.Or(wi)
	}

	I := make([]guard.DisjunctiveConstraint, n)
	for i := range psi {
		orAi := W[i].Or(guard.NewDNF(clocks, A[i]))
		ii, err := orAi.AndConstraint(nonneg)
		if err != nil {
			return nil, err
		}
		I[i] = ii
	}

	regions := make([]region.Region, n)
	for i, vi := range psi {
		r, err := region.FromValuation(vi.valuation, clocks)
		if err != nil {
			return nil, err
		}
		regions[i] = r
	}

	changed := true
	for pass := 0; changed && pass < 2*n+2; pass++ {
		changed = false
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if exceeds[i] || exceeds[j] {
					continue
				}
				if U[i].String() != U[j].String() {
					continue
				}
				if regions[i].Equal(regions[j]) {
					continue
				}
				if I[i].String() != I[j].String() {
					continue
				}
				ci, err := regions[i].ToConstraint(true)
				if err != nil {
					return nil, err
				}
				cj, err := regions[j].ToConstraint(true)
				if err != nil {
					return nil, err
				}
				ni, err := I[i].AndConstraint(ci)
				if err != nil {
					return nil, err
				}
				nj, err := I[j].AndConstraint(cj)
				if err != nil {
					return nil, err
				}
				I[i], I[j] = ni, nj
				changed = true
			}
		}
	}

	var out []PartitionEntry
	for i, vi := range psi {
		simplified := I[i].Simplify()
		for _, disjunct := range simplified.Disjuncts() {
			out = append(out, PartitionEntry{Source: vi.word, Resets: vi.resets, Guard: disjunct})
		}
	}
	return out, nil
}

func anyExceedsKappa(v valuation.Valuation, clocks clock.Set) (bool, error) {
	for _, c := range clocks.Clocks() {
		val, err := v.Value(c)
		if err != nil {
			return false, err
		}
		floor, err := val.FloorInt()
		if err != nil {
			return false, err
		}
		if floor > int64(c.Kappa()) {
			return true, nil
		}
	}
	return false, nil
}

func unitCubeAtoms(v valuation.Valuation, clocks clock.Set) ([]guard.Atom, error) {
	var atoms []guard.Atom
	for _, c := range clocks.Clocks() {
		val, err := v.Value(c)
		if err != nil {
			return nil, err
		}
		if val.IsInteger() {
			atoms = append(atoms, guard.ClockGeq(c, val))
			continue
		}
		floor, err := val.Floor()
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, guard.ClockGt(c, floor))
	}
	return atoms, nil
}
