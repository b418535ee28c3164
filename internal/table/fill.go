package table

import (
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/word"
)

// MembershipQuery is the teacher's membership oracle (spec.md §6): total,
// deterministic, answering whether w is in the target language.
type MembershipQuery func(w word.DelayTimedWord) (bool, error)

// GuessBudget bounds the exponential reset-subset enumeration spec.md §9
// flags explicitly ("subset-of-clocks enumeration... is exponential...
// support a pluggable guess budget that aborts a branch and reports
// Exhausted"). Remaining is decremented by one per speculative guess
// consumed (one per distinct feasible reset-sequence guess in a Fill cell,
// one per reset-choice combination in Seed and GuessClosing, one per reset
// sequence tried by ProcessCounterexample; GuessConsistency itself charges
// nothing beyond its refill); reaching zero mid-exploration surfaces
// Exhausted rather than silently truncating.
type GuessBudget struct {
	Remaining int
}

// NewGuessBudget returns a budget allowing up to n speculative guesses.
func NewGuessBudget(n int) *GuessBudget { return &GuessBudget{Remaining: n} }

func (b *GuessBudget) consume() error {
	if b == nil {
		return nil
	}
	if b.Remaining <= 0 {
		return errs.New(errs.Exhausted, "guess budget exhausted")
	}
	b.Remaining--
	return nil
}

// resetSubsets enumerates every subset of clocks, as a slice of slices, in
// a stable order (the empty subset first).
func resetSubsets(clocks []clock.Clock) [][]clock.Clock {
	n := len(clocks)
	out := make([][]clock.Clock, 0, 1<<n)
	for mask := 0; mask < (1 << n); mask++ {
		var subset []clock.Clock
		for i, c := range clocks {
			if mask&(1<<i) != 0 {
				subset = append(subset, c)
			}
		}
		out = append(out, subset)
	}
	return out
}

// resetSequences enumerates every length-n sequence of clock subsets (one
// subset per suffix step), as the cartesian product of resetSubsets(clocks)
// with itself n times.
func resetSequences(clocks []clock.Clock, n int) [][][]clock.Clock {
	if n == 0 {
		return [][][]clock.Clock{{}}
	}
	subsets := resetSubsets(clocks)
	rest := resetSequences(clocks, n-1)
	out := make([][][]clock.Clock, 0, len(subsets)*len(rest))
	for _, s := range subsets {
		for _, r := range rest {
			seq := make([][]clock.Clock, 0, n)
			seq = append(seq, s)
			seq = append(seq, r...)
			out = append(out, seq)
		}
	}
	return out
}

// Fill populates every missing (prefix, suffix) cell of t against mq,
// branching into one table copy per distinct feasible reset-sequence guess
// (spec.md §4.J's fillTable). The empty suffix's cell is never branched:
// it has exactly one "guess" (the empty reset sequence) and its answer
// comes directly from mq.
func (t *Table) Fill(mq MembershipQuery, budget *GuessBudget) ([]*Table, error) {
	worklist := []*Table{t}
	prefixes := t.SR()
	for _, w := range prefixes {
		for ei, e := range t.E {
			var next []*Table
			for _, tbl := range worklist {
				branches, err := tbl.fillCell(w, ei, e, mq, budget)
				if err != nil {
					return nil, err
				}
				next = append(next, branches...)
			}
			worklist = next
		}
	}
	return worklist, nil
}

// fillCell fills one (w, e) cell of t, returning one branch per distinct
// feasible reset-sequence guess (or the single unchanged table if the cell
// is already filled).
func (t *Table) fillCell(w word.ResetClockTimedWord, ei int, e word.RegionTimedWord, mq MembershipQuery, budget *GuessBudget) ([]*Table, error) {
	key := prefixKey(w)
	if _, ok := t.rows[key][ei]; ok {
		return []*Table{t}, nil
	}

	if len(e) == 0 {
		dw, err := w.ToResetDelayTimed(t.clocks)
		if err != nil {
			return nil, err
		}
		ans, err := mq(dw.Plain())
		if err != nil {
			return nil, err
		}
		result := False
		if ans {
			result = True
		}
		cp := t.Copy()
		cp.setAnswer(w, ei, Answer{Result: result})
		return []*Table{cp}, nil
	}

	start, err := w.FinalValuation(t.clocks)
	if err != nil {
		return nil, err
	}
	var branches []*Table
	seen := make(map[string]bool)
	for _, B := range resetSequences(t.clocks.Clocks(), len(e)) {
		rcw, err := e.ToResetClockTimedFrom(t.clocks, start, B)
		if err != nil {
			continue // GuessInfeasible: this reset guess has no concrete timing; skip
		}
		full := append(append(word.ResetClockTimedWord{}, w...), rcw...)
		dw, err := full.ToResetDelayTimed(t.clocks)
		if err != nil {
			continue
		}
		dwKey := prefixKey(full)
		if seen[dwKey] {
			continue
		}
		seen[dwKey] = true
		if err := budget.consume(); err != nil {
			return nil, err
		}
		ans, err := mq(dw.Plain())
		if err != nil {
			return nil, err
		}
		result := False
		if ans {
			result = True
		}
		cp := t.Copy()
		cp.guessCount++
		cp.setAnswer(w, ei, Answer{Result: result, Resets: B})
		branches = append(branches, cp)
	}
	if len(branches) == 0 {
		// No reset guess for this suffix is timing-feasible from w's
		// reached valuation: record it as a definite "false", since no
		// continuation of w by e can ever be accepted.
		cp := t.Copy()
		cp.setAnswer(w, ei, Answer{Result: False})
		return []*Table{cp}, nil
	}
	return branches, nil
}
