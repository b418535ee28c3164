package table

import (
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/rational"
)

// Seed builds the learner loop's initial candidate tables (spec.md §4.K):
// an empty table, extended by every cartesian product of reset-subset
// guesses across the alphabet (R = {(a, 0⃗, resetSet) : a ∈ Σ} for one choice
// of resetSet per action), each filled against mq.
func Seed(clocks clock.Set, alphabet *clock.Alphabet, mq MembershipQuery, budget *GuessBudget) ([]*Table, error) {
	base := New(clocks, alphabet)
	epsilon := base.S[0]

	actions := alphabet.Actions()
	subsets := resetSubsets(clocks.Clocks())

	combos := [][]int{{}}
	for range actions {
		var next [][]int
		for _, combo := range combos {
			for i := range subsets {
				next = append(next, append(append([]int{}, combo...), i))
			}
		}
		combos = next
	}

	var out []*Table
	for _, combo := range combos {
		cp := base.Copy()
		for ai, a := range actions {
			resets := subsets[combo[ai]]
			ext, err := epsilon.Extend(cp.clocks, a, rational.Zero(), resets)
			if err != nil {
				return nil, err
			}
			cp.R = append(cp.R, ext)
			cp.registerPrefix(ext)
			cp.guessCount++
		}
		if err := budget.consume(); err != nil {
			return nil, err
		}
		filled, err := cp.Fill(mq, budget)
		if err != nil {
			return nil, err
		}
		out = append(out, filled...)
	}
	return out, nil
}
