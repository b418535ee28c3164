package automaton

import (
	"testing"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/word"
)

// buildLightSwitch builds a two-location DTA over a single clock x with
// kappa 2: loc0 --a[x<=1]--> loc1 (accepting), loc1 --b[x>1]{x}--> loc0.
func buildLightSwitch(t *testing.T) (*Model, clock.Clock, clock.Action, clock.Action) {
	t.Helper()
	x := clock.NewClock("x", 2)
	cs := clock.NewSet(x)
	alphabet := clock.NewAlphabet()
	a := alphabet.CreateAction("a")
	b := alphabet.CreateAction("b")

	m := NewModel("light-switch", cs, alphabet)
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
	return m, x, a, b
}

func TestModelIndices(t *testing.T) {
	m, _, a, _ := buildLightSwitch(t)
	if len(m.Locations()) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(m.Locations()))
	}
	init, ok := m.Init()
	if !ok || init.Label() != "off" {
		t.Fatalf("unexpected init: %v %v", init, ok)
	}
	out := m.OutgoingOn(init, a)
	if len(out) != 1 {
		t.Fatalf("expected 1 outgoing transition on a, got %d", len(out))
	}
	if m.MaxConstant() != 1 {
		t.Fatalf("expected max constant 1, got %d", m.MaxConstant())
	}
}

func TestRuntimeExecuteDelayTimed(t *testing.T) {
	m, _, a, b := buildLightSwitch(t)
	rt, err := NewRuntime(m)
	if err != nil {
		t.Fatal(err)
	}
	w := word.DelayTimedWord{
		{Action: a, Delay: rational.FromInt(1)},
		{Action: b, Delay: rational.FromInt(1)},
	}
	results, accepted, err := rt.ExecuteDelayTimed(w)
	if err != nil {
		t.Fatal(err)
	}
	if accepted {
		t.Error("expected rejection: final location is off, not accepting")
	}
	if len(results) != 2 || !results[0].Accepted {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestRuntimeExecuteDelayTimedAccepts(t *testing.T) {
	m, _, a, _ := buildLightSwitch(t)
	rt, err := NewRuntime(m)
	if err != nil {
		t.Fatal(err)
	}
	w := word.DelayTimedWord{{Action: a, Delay: rational.Zero()}}
	_, accepted, err := rt.ExecuteDelayTimed(w)
	if err != nil {
		t.Fatal(err)
	}
	if !accepted {
		t.Error("expected acceptance after a single 'a' with x=0<=1")
	}
}

func TestRuntimeRejectsGuardViolation(t *testing.T) {
	m, _, a, _ := buildLightSwitch(t)
	rt, err := NewRuntime(m)
	if err != nil {
		t.Fatal(err)
	}
	w := word.DelayTimedWord{{Action: a, Delay: rational.FromInt(5)}}
	_, accepted, err := rt.ExecuteDelayTimed(w)
	if err != nil {
		t.Fatal(err)
	}
	if accepted {
		t.Error("expected rejection: x=5 violates x<=1")
	}
}

func TestIsCompleteFalseThenToCTAComplete(t *testing.T) {
	m, _, _, _ := buildLightSwitch(t)
	oracle := guard.NewDBMOracle()
	complete, err := m.IsComplete(oracle)
	if err != nil {
		t.Fatal(err)
	}
	if complete {
		t.Fatal("expected the light switch to be incomplete (missing b in off, a in on)")
	}
	cta, err := m.ToCTA(oracle)
	if err != nil {
		t.Fatal(err)
	}
	complete2, err := cta.IsComplete(oracle)
	if err != nil {
		t.Fatal(err)
	}
	if !complete2 {
		t.Error("expected ToCTA's result to be complete")
	}
	if _, ok := cta.Sink(); !ok {
		t.Error("expected ToCTA to add a sink")
	}
}

func TestIsDeterministicTrueForLightSwitch(t *testing.T) {
	m, _, _, _ := buildLightSwitch(t)
	det, err := m.IsDeterministic(guard.NewDBMOracle())
	if err != nil {
		t.Fatal(err)
	}
	if !det {
		t.Error("expected the light switch to be deterministic")
	}
}

func TestIsDeterministicFalseOnOverlappingGuards(t *testing.T) {
	x := clock.NewClock("x", 2)
	cs := clock.NewSet(x)
	alphabet := clock.NewAlphabet()
	a := alphabet.CreateAction("a")
	m := NewModel("overlap", cs, alphabet)
	loc0 := m.NewLocation("l0")
	loc1 := m.NewLocation("l1")
	loc2 := m.NewLocation("l2")
	m.SetInit(loc0)
	g1 := guard.New(cs, guard.ClockLeq(x, rational.FromInt(1)))
	g2 := guard.New(cs, guard.ClockGeq(x, rational.Zero()))
	if _, err := m.AddTransition(loc0, a, g1, nil, loc1); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddTransition(loc0, a, g2, nil, loc2); err != nil {
		t.Fatal(err)
	}
	det, err := m.IsDeterministic(guard.NewDBMOracle())
	if err != nil {
		t.Fatal(err)
	}
	if det {
		t.Error("expected non-determinism: both guards are satisfiable at x=0")
	}
}

func TestFindWitnessFindsAcceptingWord(t *testing.T) {
	m, _, _, _ := buildLightSwitch(t)
	w, found, err := FindWitness(m, guard.NewDBMOracle())
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected a witness: loc1 is reachable and accepting")
	}
	rt, err := NewRuntime(m)
	if err != nil {
		t.Fatal(err)
	}
	_, accepted, err := rt.ExecuteDelayTimed(w)
	if err != nil {
		t.Fatal(err)
	}
	if !accepted {
		t.Errorf("reconstructed witness %v was not actually accepted", w)
	}
}

func TestFindWitnessEmptyLanguage(t *testing.T) {
	x := clock.NewClock("x", 2)
	cs := clock.NewSet(x)
	alphabet := clock.NewAlphabet()
	m := NewModel("unreachable-accept", cs, alphabet)
	loc0 := m.NewLocation("l0")
	loc1 := m.NewLocation("l1")
	m.SetInit(loc0)
	m.SetAccepting(loc1)
	_, found, err := FindWitness(m, guard.NewDBMOracle())
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected no witness: loc1 is unreachable")
	}
}

func TestProductAndEquivalence(t *testing.T) {
	m1, _, _, _ := buildLightSwitch(t)
	m2 := m1.Copy()
	oracle := guard.NewDBMOracle()
	eq, _, err := Equivalent(m1, m2, oracle)
	if err != nil {
		t.Fatal(err)
	}
	if !eq {
		t.Error("expected a model to be equivalent to its own copy")
	}
}
