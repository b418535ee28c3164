package learner

import (
	"testing"

	"github.com/dta-learner/dta/internal/automaton"
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/table"
	"github.com/dta-learner/dta/internal/teacher"
)

// buildLightSwitch mirrors internal/automaton's own fixture: loc0
// --a[x<=1]--> loc1 (accepting), loc1 --b[x>1]{x}--> loc0.
func buildLightSwitch(t *testing.T) *automaton.Model {
	t.Helper()
	x := clock.NewClock("x", 2)
	cs := clock.NewSet(x)
	alphabet := clock.NewAlphabet()
	a := alphabet.CreateAction("a")
	b := alphabet.CreateAction("b")

	m := automaton.NewModel("light-switch", cs, alphabet)
	loc0 := m.NewLocation("off")
	loc1 := m.NewLocation("on")
	m.SetInit(loc0)
	m.SetAccepting(loc1)

	guardA := guard.New(cs, guard.ClockLeq(x, rational.FromInt(1)))
	guardB := guard.New(cs, guard.ClockGt(x, rational.FromInt(1)))
	if _, err := m.AddTransition(loc0, a, guardA, nil, loc1); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddTransition(loc1, b, guardB, []clock.Clock{x}, loc0); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestLearnConvergesToAnEquivalentHypothesis(t *testing.T) {
	target := buildLightSwitch(t)
	oracle := guard.NewDBMOracle()
	tchr := teacher.NewSimulationTeacher(target, oracle, nil)
	budget := table.NewGuessBudget(10_000)

	result, err := Learn(target.Clocks(), target.Alphabet(), tchr, oracle, budget, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Hypothesis == nil {
		t.Fatal("expected a non-nil hypothesis")
	}

	equivalent, witness, err := automaton.Equivalent(target, result.Hypothesis, oracle)
	if err != nil {
		t.Fatal(err)
	}
	if !equivalent {
		t.Errorf("learned hypothesis disagrees with target, counterexample %v", witness)
	}
	if result.MembershipQueries == 0 {
		t.Error("expected at least one membership query to have been recorded")
	}
	if result.EquivalenceQueries == 0 {
		t.Error("expected at least one equivalence query to have been recorded")
	}
}

func TestLearnExhaustsOnZeroBudget(t *testing.T) {
	target := buildLightSwitch(t)
	oracle := guard.NewDBMOracle()
	tchr := teacher.NewSimulationTeacher(target, oracle, nil)
	budget := table.NewGuessBudget(0)

	_, err := Learn(target.Clocks(), target.Alphabet(), tchr, oracle, budget, nil)
	if err == nil {
		t.Fatal("expected a zero guess budget to prevent convergence")
	}
}
