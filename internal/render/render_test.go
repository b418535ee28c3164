package render

import (
	"strings"
	"testing"

	"github.com/dta-learner/dta/internal/automaton"
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/table"
)

func TestModelRendersTransitionsAndMarkers(t *testing.T) {
	x := clock.NewClock("x", 2)
	cs := clock.NewSet(x)
	alphabet := clock.NewAlphabet()
	a := alphabet.CreateAction("a")

	m := automaton.NewModel("light-switch", cs, alphabet)
	loc0 := m.NewLocation("off")
	loc1 := m.NewLocation("on")
	m.SetInit(loc0)
	m.SetAccepting(loc1)

	g := guard.New(cs, guard.ClockLeq(x, rational.FromInt(1)))
	if _, err := m.AddTransition(loc0, a, g, []clock.Clock{x}, loc1); err != nil {
		t.Fatal(err)
	}

	out := Model(m)
	if !strings.Contains(out, "off (init)") {
		t.Errorf("expected init marker in output:\n%s", out)
	}
	if !strings.Contains(out, "on (accepting)") {
		t.Errorf("expected accepting marker in output:\n%s", out)
	}
	if !strings.Contains(out, "x") {
		t.Errorf("expected reset clock name in output:\n%s", out)
	}
}

func TestTableRendersPrefixesAndAnswers(t *testing.T) {
	x := clock.NewClock("x", 2)
	cs := clock.NewSet(x)
	alphabet := clock.NewAlphabet()
	alphabet.CreateAction("a")

	tbl := table.New(cs, alphabet)
	out := Table(tbl)
	if !strings.Contains(out, "epsilon") {
		t.Errorf("expected the empty prefix to render as epsilon:\n%s", out)
	}
	if !strings.Contains(out, "e0") {
		t.Errorf("expected a suffix column:\n%s", out)
	}
}
