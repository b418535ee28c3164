package table

import (
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/valuation"
	"github.com/dta-learner/dta/internal/word"
)

// GuessClosing repairs an unclosed table: the offending r (with no matching
// S row) is moved into S, and for every action and every reset subset a
// candidate one-step extension r·(action, 0, resets) is added to R. Each
// combination of reset choices across actions yields a distinct table,
// refilled against mq (spec.md §4.J).
func (t *Table) GuessClosing(mq MembershipQuery, budget *GuessBudget) ([]*Table, error) {
	r, ok := t.UnclosedRow()
	if !ok {
		return []*Table{t}, nil
	}
	base := t.Copy()
	base.S = append(base.S, r)
	base.removeFromR(r)

	actions := base.alphabet.Actions()
	clocks := base.clocks.Clocks()
	subsets := resetSubsets(clocks)

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
			ext, err := r.Extend(cp.clocks, a, rational.Zero(), resets)
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

func (t *Table) removeFromR(w word.ResetClockTimedWord) {
	key := prefixKey(w)
	out := t.R[:0]
	for _, r := range t.R {
		if prefixKey(r) != key {
			out = append(out, r)
		}
	}
	t.R = out
}

// GuessConsistency repairs a consistency violation by extending E: a
// RowMismatch adds lastStepRegion(w1)·e to E, a ResetMismatch adds
// lastStepRegion(w1) alone, then refills (spec.md §4.J).
func (t *Table) GuessConsistency(mq MembershipQuery, budget *GuessBudget) ([]*Table, error) {
	rowMismatch, resetMismatch, ok := t.Consistent()
	if ok {
		return []*Table{t}, nil
	}
	cp := t.Copy()
	var newSuffix word.RegionTimedWord
	switch {
	case rowMismatch != nil:
		lead, err := lastStepRegion(rowMismatch.W1, cp.clocks)
		if err != nil {
			return nil, err
		}
		tail := cp.E[rowMismatch.DistinguishingE]
		newSuffix = append(word.RegionTimedWord{lead}, tail...)
	case resetMismatch != nil:
		lead, err := lastStepRegion(resetMismatch.W1, cp.clocks)
		if err != nil {
			return nil, err
		}
		newSuffix = word.RegionTimedWord{lead}
	default:
		return nil, errs.New(errs.Exhausted, "Consistent reported a violation but supplied neither mismatch kind")
	}
	key := suffixKey(newSuffix)
	for _, existing := range cp.E {
		if suffixKey(existing) == key {
			return []*Table{cp}, nil
		}
	}
	cp.E = append(cp.E, newSuffix)
	cp.guessCount++
	return cp.Fill(mq, budget)
}

// ProcessCounterexample integrates a counter-example word into t: every
// feasible reset-sequence guess for the full cex is tried; for each, the
// resulting reset-clock word's strict prefixes not already in S∪R are added
// to R, and the table is refilled (spec.md §4.J).
func (t *Table) ProcessCounterexample(cex []clock.Action, delays []rational.Rational, mq MembershipQuery, budget *GuessBudget) ([]*Table, error) {
	if len(cex) != len(delays) {
		return nil, errs.New(errs.InconsistentTiming, "counter-example has %d actions but %d delays", len(cex), len(delays))
	}
	clocks := t.clocks.Clocks()
	var out []*Table
	for _, B := range resetSequences(clocks, len(cex)) {
		if err := budget.consume(); err != nil {
			return nil, err
		}
		full, err := buildResetClockWord(t.clocks, cex, delays, B)
		if err != nil {
			continue
		}
		cp := t.Copy()
		cp.guessCount++
		existing := make(map[string]bool)
		for _, w := range cp.SR() {
			existing[prefixKey(w)] = true
		}
		for i := 1; i <= len(full); i++ {
			prefix := full[:i]
			key := prefixKey(prefix)
			if existing[key] {
				continue
			}
			existing[key] = true
			cp.R = append(cp.R, prefix)
			cp.registerPrefix(prefix)
		}
		filled, err := cp.Fill(mq, budget)
		if err != nil {
			return nil, err
		}
		out = append(out, filled...)
	}
	return out, nil
}

func buildResetClockWord(clocks clock.Set, actions []clock.Action, delays []rational.Rational, resets [][]clock.Clock) (word.ResetClockTimedWord, error) {
	out := make(word.ResetClockTimedWord, len(actions))
	cur := valuation.Zero(clocks)
	for i, a := range actions {
		delayed, err := cur.Delay(delays[i])
		if err != nil {
			return nil, err
		}
		out[i] = word.ResetClockStep{Action: a, Valuation: delayed, Resets: resets[i]}
		next, err := delayed.Reset(resets[i])
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return out, nil
}
