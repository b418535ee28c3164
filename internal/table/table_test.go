package table

import (
	"testing"

	"github.com/dta-learner/dta/internal/automaton"
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/valuation"
	"github.com/dta-learner/dta/internal/word"
)

func TestRowEqual(t *testing.T) {
	r1 := Row{0: Answer{Result: True}, 1: Answer{Result: False}}
	r2 := Row{0: Answer{Result: True}, 1: Answer{Result: False}}
	r3 := Row{0: Answer{Result: True}, 1: Answer{Result: True}}
	if !r1.Equal(r2) {
		t.Error("expected identical rows to be equal")
	}
	if r1.Equal(r3) {
		t.Error("expected rows differing on one entry to be unequal")
	}
}

func TestNewTableIsTriviallyClosedAndConsistent(t *testing.T) {
	clocks := clock.NewSet()
	alphabet := clock.NewAlphabet()
	tbl := New(clocks, alphabet)
	if !tbl.Closed() {
		t.Error("expected a table with no R members to be closed")
	}
	if _, _, ok := tbl.Consistent(); !ok {
		t.Error("expected a table with only the epsilon prefix to be consistent")
	}
}

// mqExactlyOneA accepts exactly the one-step word "a" and nothing else, over
// a clock-free alphabet with a single action.
func mqExactlyOneA(w word.DelayTimedWord) (bool, error) {
	return len(w) == 1 && w[0].Action.Name() == "a", nil
}

func TestSeedDetectsUnclosedTable(t *testing.T) {
	clocks := clock.NewSet()
	alphabet := clock.NewAlphabet()
	alphabet.CreateAction("a")
	budget := NewGuessBudget(1000)

	tables, err := Seed(clocks, alphabet, mqExactlyOneA, budget)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected exactly one seeded table over a clock-free single-action alphabet, got %d", len(tables))
	}
	if tables[0].Closed() {
		t.Fatal("expected the seeded table to be unclosed: epsilon (false) and 'a' (true) disagree")
	}
}

func TestGuessClosingRepairsTheSeededTable(t *testing.T) {
	clocks := clock.NewSet()
	alphabet := clock.NewAlphabet()
	alphabet.CreateAction("a")
	budget := NewGuessBudget(1000)

	tables, err := Seed(clocks, alphabet, mqExactlyOneA, budget)
	if err != nil {
		t.Fatal(err)
	}
	repaired, err := tables[0].GuessClosing(mqExactlyOneA, budget)
	if err != nil {
		t.Fatal(err)
	}
	if len(repaired) == 0 {
		t.Fatal("expected at least one repaired branch")
	}
	found := false
	for _, cand := range repaired {
		if cand.Closed() {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected at least one repaired branch to be closed")
	}
}

func TestHypothesizeAcceptsExactlyOneA(t *testing.T) {
	clocks := clock.NewSet()
	alphabet := clock.NewAlphabet()
	a := alphabet.CreateAction("a")
	budget := NewGuessBudget(1000)

	tables, err := Seed(clocks, alphabet, mqExactlyOneA, budget)
	if err != nil {
		t.Fatal(err)
	}
	repaired, err := tables[0].GuessClosing(mqExactlyOneA, budget)
	if err != nil {
		t.Fatal(err)
	}
	var prepared *Table
	for _, cand := range repaired {
		if cand.Prepared() {
			prepared = cand
			break
		}
	}
	if prepared == nil {
		t.Fatal("expected at least one repaired branch to be prepared for hypothesis construction")
	}

	m, err := Hypothesize(prepared)
	if err != nil {
		t.Fatal(err)
	}

	rt, err := automaton.NewRuntime(m)
	if err != nil {
		t.Fatal(err)
	}
	_, accepted, err := rt.ExecuteDelayTimed(word.DelayTimedWord{{Action: a, Delay: rational.Zero()}})
	if err != nil {
		t.Fatal(err)
	}
	if !accepted {
		t.Error("expected the hypothesis to accept a single 'a'")
	}

	rt2, err := automaton.NewRuntime(m)
	if err != nil {
		t.Fatal(err)
	}
	_, accepted2, err := rt2.ExecuteDelayTimed(word.DelayTimedWord{
		{Action: a, Delay: rational.Zero()},
		{Action: a, Delay: rational.Zero()},
	})
	if err != nil {
		t.Fatal(err)
	}
	if accepted2 {
		t.Error("expected the hypothesis to reject two consecutive 'a's")
	}
}

func TestPartitionSingleValuationIsAlwaysSatisfied(t *testing.T) {
	x := clock.NewClock("x", 1)
	clocks := clock.NewSet(x)
	v := valuation.Zero(clocks)

	psi := []valuationWithResets{{word: word.ResetClockTimedWord{}, valuation: v, resets: nil}}
	entries, err := Partition(clocks, psi)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one partition entry for a single observed valuation")
	}
	oracle := guard.NewDBMOracle()
	sat, _, err := oracle.IsSatisfiable(entries[0].Guard)
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Error("expected the recovered guard to be satisfiable at the observed valuation's own region")
	}
}
