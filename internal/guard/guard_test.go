package guard

import (
	"testing"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/valuation"
)

func testClocks() (clock.Clock, clock.Clock, clock.Set) {
	x := clock.NewClock("x", 5)
	y := clock.NewClock("y", 5)
	return x, y, clock.NewSet(x, y)
}

func TestNewAddsNonNegativity(t *testing.T) {
	x, _, cs := testClocks()
	c := New(cs, ClockLeq(x, rational.FromInt(3)))
	sat, err := c.IsSatisfiable(DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Error("x<=3 (with x>=0) should be satisfiable")
	}
}

func TestContradictorySingleClockIsUnsatisfiable(t *testing.T) {
	x, _, cs := testClocks()
	c := New(cs, ClockLeq(x, rational.FromInt(2)), ClockGeq(x, rational.FromInt(3)))
	sat, err := c.IsSatisfiable(DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	if sat {
		t.Error("x<=2 and x>=3 should be unsatisfiable")
	}
}

func TestNegateThenAndIsUnsatisfiable(t *testing.T) {
	x, _, cs := testClocks()
	c := New(cs, ClockLeq(x, rational.FromInt(3)))
	neg := c.Negate()
	combined, err := neg.AndConstraint(c)
	if err != nil {
		t.Fatal(err)
	}
	sat, err := combined.IsSatisfiable(DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	if sat {
		t.Error("c AND NOT(c) should be unsatisfiable")
	}
}

func TestOrThenIsSatisfiable(t *testing.T) {
	x, _, cs := testClocks()
	lo := New(cs, ClockLt(x, rational.FromInt(2)))
	hi := New(cs, ClockGeq(x, rational.FromInt(2)))
	dnf, err := lo.Or(hi)
	if err != nil {
		t.Fatal(err)
	}
	sat, err := dnf.IsSatisfiable(DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Error("(x<2) OR (x>=2) should be satisfiable")
	}
}

func TestImpliesTransitively(t *testing.T) {
	x, _, cs := testClocks()
	narrow := New(cs, ClockLeq(x, rational.FromInt(2)))
	wide := New(cs, ClockLeq(x, rational.FromInt(5)))
	ok, err := narrow.Implies(wide, DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("x<=2 should imply x<=5")
	}
	ok, err = wide.Implies(narrow, DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("x<=5 should not imply x<=2")
	}
}

func TestIsSatisfiedConcrete(t *testing.T) {
	x, y, cs := testClocks()
	v := valuation.Zero(cs)
	v, err := v.Delay(rational.FromInt(2))
	if err != nil {
		t.Fatal(err)
	}
	c := New(cs, DiffLeq(x, y, rational.FromInt(0)))
	ok, err := c.IsSatisfied(v)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("x-y<=0 should hold when x and y advance together")
	}
}

func TestSimplifyFoldsPerClockBounds(t *testing.T) {
	x, _, cs := testClocks()
	c := New(cs,
		ClockLeq(x, rational.FromInt(5)),
		ClockLeq(x, rational.FromInt(3)),
		ClockGeq(x, rational.FromInt(1)),
	)
	simplified := c.Simplify()
	if len(simplified.Atoms()) != 3 {
		t.Errorf("expected 3 atoms (x's lower and upper bound, y's non-negativity) after simplify, got %d: %v", len(simplified.Atoms()), simplified.Atoms())
	}
	sat, err := simplified.IsSatisfiable(DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Error("1<=x<=3 should be satisfiable")
	}
}

func TestSimplifyDetectsContradiction(t *testing.T) {
	x, _, cs := testClocks()
	c := New(cs, ClockLeq(x, rational.FromInt(1)), ClockGeq(x, rational.FromInt(3)))
	simplified := c.Simplify()
	if !simplified.IsTriviallyFalse() {
		t.Error("x<=1 and x>=3 should simplify to a trivial contradiction")
	}
}

func TestNegateDisjointProducesDisjointPieces(t *testing.T) {
	x, _, cs := testClocks()
	a := New(cs, ClockLt(x, rational.FromInt(3)))
	b := New(cs, ClockLt(x, rational.FromInt(5)))
	dnf := NewDNF(cs, a, b)
	disjoint, err := dnf.NegateDisjoint(DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range disjoint.Disjuncts() {
		for j, q := range disjoint.Disjuncts() {
			if i == j {
				continue
			}
			both, err := p.And(q)
			if err != nil {
				t.Fatal(err)
			}
			sat, err := both.IsSatisfiable(DefaultOracle)
			if err != nil {
				t.Fatal(err)
			}
			if sat {
				t.Errorf("disjuncts %d and %d overlap: %v, %v", i, j, p, q)
			}
		}
	}
	sat, err := disjoint.IsSatisfiable(DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Error("union of x<3 and x<5 is non-empty, NegateDisjoint should preserve satisfiability")
	}
}

func TestFalseDNFIsUnsatisfiable(t *testing.T) {
	_, _, cs := testClocks()
	sat, err := FalseDNF(cs).IsSatisfiable(DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	if sat {
		t.Error("empty disjunction should be unsatisfiable")
	}
}

func TestCacheConsistentAcrossCalls(t *testing.T) {
	x, _, cs := testClocks()
	c := New(cs, ClockLeq(x, rational.FromInt(3)))
	first, err := c.IsSatisfiable(DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.IsSatisfiable(DefaultOracle)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("repeated IsSatisfiable calls on the same constraint should agree")
	}
}
