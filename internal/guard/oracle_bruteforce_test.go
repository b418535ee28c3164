package guard

import (
	"testing"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/rational"
)

func TestBruteForceAgreesWithDBMOnSingleClockBounds(t *testing.T) {
	x, _, cs := testClocks()
	cases := []Constraint{
		New(cs, ClockLeq(x, rational.FromInt(3))),
		New(cs, ClockLeq(x, rational.FromInt(2)), ClockGeq(x, rational.FromInt(3))),
		New(cs, ClockLt(x, rational.FromInt(2))),
		New(cs, ClockGeq(x, rational.FromInt(1)), ClockLeq(x, rational.FromInt(4))),
	}
	for i, c := range cases {
		dbmSat, _, err := dbmOracle{}.IsSatisfiable(c)
		if err != nil {
			t.Fatalf("case %d: dbm oracle: %v", i, err)
		}
		bfSat, ok, err := (bruteForceOracle{}).IsSatisfiable(c)
		if err != nil {
			t.Fatalf("case %d: brute-force oracle: %v", i, err)
		}
		if !ok {
			t.Fatalf("case %d: brute-force oracle could not decide", i)
		}
		if bfSat != dbmSat {
			t.Errorf("case %d: dbm=%v brute-force=%v for %v", i, dbmSat, bfSat, c)
		}
	}
}

func TestBruteForceEmptyClockSet(t *testing.T) {
	c := FalseConstraint(clock.NewSet())
	sat, ok, err := (bruteForceOracle{}).IsSatisfiable(c)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a decision")
	}
	if sat {
		t.Error("FalseConstraint should be unsatisfiable")
	}
}
