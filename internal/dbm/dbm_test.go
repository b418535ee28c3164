package dbm

import (
	"testing"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/rational"
)

func testClocks() (clock.Clock, clock.Clock, clock.Set) {
	x := clock.NewClock("x", 5)
	y := clock.NewClock("y", 5)
	return x, y, clock.NewSet(x, y)
}

func TestInitialIsEmptyFalse(t *testing.T) {
	_, _, cs := testClocks()
	d := Initial(cs)
	if d.IsEmpty() {
		t.Fatal("initial DBM should not be empty")
	}
}

func TestCanonicalIdempotent(t *testing.T) {
	x, _, cs := testClocks()
	d := Initial(cs)
	d = d.IntersectBound(d.Index(x), 0, Leq(rational.FromInt(3)))
	once := d.Canonical()
	twice := once.Canonical()
	for i := 0; i < once.n; i++ {
		for j := 0; j < once.n; j++ {
			if !sameBound(once.m[i][j], twice.m[i][j]) {
				t.Errorf("canonical not idempotent at [%d][%d]: %v vs %v", i, j, once.m[i][j], twice.m[i][j])
			}
		}
	}
}

func TestIntersectMakesEmpty(t *testing.T) {
	x, _, cs := testClocks()
	d := Initial(cs)
	ix := d.Index(x)
	// x <= 2 and x >= 3 (via 0 - x <= -3) is contradictory.
	d = d.IntersectBound(ix, 0, Leq(rational.FromInt(2)))
	d = d.IntersectBound(0, ix, Leq(rational.FromInt(-3)))
	if !d.IsEmpty() {
		t.Fatal("expected contradictory DBM to be empty")
	}
}

func TestFutureThenResetEmptyIsNoOp(t *testing.T) {
	_, _, cs := testClocks()
	d := Initial(cs)
	future := d.Future()
	resetAll, err := future.ResetAll(nil)
	if err != nil {
		t.Fatal(err)
	}
	include1, err := future.Include(resetAll)
	if err != nil {
		t.Fatal(err)
	}
	include2, err := resetAll.Include(future)
	if err != nil {
		t.Fatal(err)
	}
	if !include1 || !include2 {
		t.Error("future then reset(empty) should be a no-op up to canonicalisation")
	}
}

func TestIncludeMonotonic(t *testing.T) {
	x, _, cs := testClocks()
	ix := cs.IndexOf(x)
	d := Initial(cs)
	tight := d.IntersectBound(ix, 0, Leq(rational.FromInt(2)))

	includes, err := d.Include(tight)
	if err != nil {
		t.Fatal(err)
	}
	if !includes {
		t.Error("looser DBM should include the tightened one")
	}

	includesBack, err := tight.Include(d)
	if err != nil {
		t.Fatal(err)
	}
	if includesBack {
		t.Error("tightened DBM should not include the looser one (unless equal)")
	}
}

func TestIntersectAlwaysTightensOrLeavesUnchanged(t *testing.T) {
	x, _, cs := testClocks()
	ix := cs.IndexOf(x)
	d := Initial(cs)
	tightened := d.IntersectBound(ix, 0, Leq(rational.FromInt(2)))
	includes, err := d.Include(tightened)
	if err != nil {
		t.Fatal(err)
	}
	if !includes {
		t.Error("intersecting should only ever shrink or preserve the zone")
	}
}

func TestClockSetMismatch(t *testing.T) {
	x := clock.NewClock("x", 5)
	y := clock.NewClock("y", 5)
	d1 := Initial(clock.NewSet(x))
	d2 := Initial(clock.NewSet(y))
	if _, err := d1.Include(d2); err == nil {
		t.Error("expected ClockSetMismatch")
	}
}
