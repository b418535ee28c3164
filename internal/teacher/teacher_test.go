package teacher

import (
	"testing"

	"github.com/dta-learner/dta/internal/automaton"
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/word"
)

// buildLightSwitch mirrors internal/automaton's own fixture: loc0
// --a[x<=1]--> loc1 (accepting), loc1 --b[x>1]{x}--> loc0.
func buildLightSwitch(t *testing.T) (*automaton.Model, clock.Action, clock.Action) {
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
	return m, a, b
}

func TestSimulationTeacherMembership(t *testing.T) {
	m, a, _ := buildLightSwitch(t)
	tchr := NewSimulationTeacher(m, guard.NewDBMOracle(), nil)

	accepted, err := tchr.Membership(word.DelayTimedWord{{Action: a, Delay: rational.Zero()}})
	if err != nil {
		t.Fatal(err)
	}
	if !accepted {
		t.Error("expected acceptance after a single 'a' at x=0")
	}
	if tchr.MembershipQueries() != 1 {
		t.Fatalf("expected 1 membership query recorded, got %d", tchr.MembershipQueries())
	}

	rejected, err := tchr.Membership(word.DelayTimedWord{{Action: a, Delay: rational.FromInt(5)}})
	if err != nil {
		t.Fatal(err)
	}
	if rejected {
		t.Error("expected rejection: x=5 violates x<=1")
	}
	if tchr.MembershipQueries() != 2 {
		t.Fatalf("expected 2 membership queries recorded, got %d", tchr.MembershipQueries())
	}
}

func TestSimulationTeacherEquivalenceAgreesWithSelf(t *testing.T) {
	m, _, _ := buildLightSwitch(t)
	tchr := NewSimulationTeacher(m, guard.NewDBMOracle(), nil)

	equivalent, witness, err := tchr.Equivalence(m.Copy())
	if err != nil {
		t.Fatal(err)
	}
	if !equivalent {
		t.Errorf("expected a model to be equivalent to its own copy, got witness %v", witness)
	}
	if tchr.EquivalenceQueries() != 1 {
		t.Fatalf("expected 1 equivalence query recorded, got %d", tchr.EquivalenceQueries())
	}
}

func TestSimulationTeacherEquivalenceFindsCounterexample(t *testing.T) {
	m, _, _ := buildLightSwitch(t)
	tchr := NewSimulationTeacher(m, guard.NewDBMOracle(), nil)

	// A hypothesis with a single accepting location and no transitions
	// accepts only the empty word, while the target rejects the empty word
	// and accepts a single 'a' at x<=1. Equivalent searches
	// L(target)∩L(¬hypothesis) first, so the witness is (a, 0).
	cs := m.Clocks()
	alphabet := clock.NewAlphabet()
	alphabet.CreateAction("a")
	alphabet.CreateAction("b")
	other := automaton.NewModel("always-accept", cs, alphabet)
	loc := other.NewLocation("l0")
	other.SetInit(loc)
	other.SetAccepting(loc)

	equivalent, witness, err := tchr.Equivalence(other)
	if err != nil {
		t.Fatal(err)
	}
	if equivalent {
		t.Fatal("expected disagreement: target rejects epsilon, hypothesis accepts it")
	}
	if len(witness) != 1 || witness[0].Action.Name() != "a" || !witness[0].Delay.Equal(rational.Zero()) {
		t.Errorf("expected the one-step word (a, 0) as counterexample, got %v", witness)
	}
}

func TestSimulationTeacherSessionIDIsStable(t *testing.T) {
	m, _, _ := buildLightSwitch(t)
	tchr := NewSimulationTeacher(m, guard.NewDBMOracle(), nil)
	id1 := tchr.SessionID()
	if _, err := tchr.Membership(word.DelayTimedWord{}); err != nil {
		t.Fatal(err)
	}
	if tchr.SessionID() != id1 {
		t.Error("expected session ID to stay fixed across queries")
	}
}
