package region

import (
	"testing"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/valuation"
)

func testClocks() (clock.Clock, clock.Clock, clock.Set) {
	x := clock.NewClock("x", 2)
	y := clock.NewClock("y", 2)
	return x, y, clock.NewSet(x, y)
}

func mustValuation(t *testing.T, cs clock.Set, pairs map[clock.Clock]rational.Rational) valuation.Valuation {
	t.Helper()
	v := valuation.Zero(cs)
	for c, val := range pairs {
		v = v.With(c, val)
	}
	return v
}

func TestFromValuationContainsItself(t *testing.T) {
	x, y, cs := testClocks()
	v := mustValuation(t, cs, map[clock.Clock]rational.Rational{
		x: rational.FromInts(3, 2),
		y: rational.FromInts(1, 2),
	})
	r, err := FromValuation(v, cs)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := r.Contains(v)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("region should contain the valuation it was built from")
	}
}

func TestRegionRoundTrip(t *testing.T) {
	x, y, cs := testClocks()
	cases := []map[clock.Clock]rational.Rational{
		{x: rational.Zero(), y: rational.Zero()},
		{x: rational.FromInts(3, 2), y: rational.FromInts(1, 2)},
		{x: rational.FromInt(3), y: rational.FromInt(3)},
	}
	for _, pairs := range cases {
		v := mustValuation(t, cs, pairs)
		r1, err := FromValuation(v, cs)
		if err != nil {
			t.Fatal(err)
		}
		rebuilt := r1.BuildValuation()
		r2, err := FromValuation(rebuilt, cs)
		if err != nil {
			t.Fatal(err)
		}
		if !r1.Equal(r2) {
			t.Errorf("round trip mismatch: %v vs %v", r1, r2)
		}
	}
}

func TestSaturationEquivalence(t *testing.T) {
	x, y, cs := testClocks()
	v1 := mustValuation(t, cs, map[clock.Clock]rational.Rational{x: rational.FromInt(5), y: rational.Zero()})
	v2 := mustValuation(t, cs, map[clock.Clock]rational.Rational{x: rational.FromInt(100), y: rational.Zero()})
	r1, err := FromValuation(v1, cs)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := FromValuation(v2, cs)
	if err != nil {
		t.Fatal(err)
	}
	if !r1.Equal(r2) {
		t.Error("both valuations exceed x's ceiling and should be in the same saturated region")
	}
}

func TestToConstraintSatisfiedByOwnRepresentative(t *testing.T) {
	x, y, cs := testClocks()
	v := mustValuation(t, cs, map[clock.Clock]rational.Rational{
		x: rational.FromInts(3, 2),
		y: rational.FromInts(1, 2),
	})
	r, err := FromValuation(v, cs)
	if err != nil {
		t.Fatal(err)
	}
	c, err := r.ToConstraint(false)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := c.IsSatisfied(r.BuildValuation())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("region's own constraint should be satisfied by its own representative")
	}
	ok, err = c.IsSatisfied(v)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("region's constraint should be satisfied by the original valuation")
	}
}

func TestDelayToReachesTargetRegion(t *testing.T) {
	x, y, cs := testClocks()
	start := mustValuation(t, cs, map[clock.Clock]rational.Rational{x: rational.Zero(), y: rational.Zero()})
	target := mustValuation(t, cs, map[clock.Clock]rational.Rational{x: rational.FromInt(1), y: rational.FromInt(1)})
	r, err := FromValuation(target, cs)
	if err != nil {
		t.Fatal(err)
	}
	d, err := r.DelayTo(start)
	if err != nil {
		t.Fatal(err)
	}
	delayed, err := start.Delay(d)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := r.Contains(delayed)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("delaying by %v from %v should reach region %v", d, start, r)
	}
}
