package rational

import "testing"

func mustAdd(t *testing.T, x, y Rational) Rational {
	t.Helper()
	r, err := x.Add(y)
	if err != nil {
		t.Fatalf("Add(%v, %v): %v", x, y, err)
	}
	return r
}

func TestAddCommutative(t *testing.T) {
	a := FromInts(1, 3)
	b := FromInts(2, 5)
	ab := mustAdd(t, a, b)
	ba := mustAdd(t, b, a)
	if !ab.Equal(ba) {
		t.Errorf("a+b = %v, b+a = %v", ab, ba)
	}
}

func TestAddAssociative(t *testing.T) {
	a, b, c := FromInts(1, 2), FromInts(1, 3), FromInts(1, 6)
	left := mustAdd(t, mustAdd(t, a, b), c)
	right := mustAdd(t, a, mustAdd(t, b, c))
	if !left.Equal(right) {
		t.Errorf("(a+b)+c = %v, a+(b+c) = %v", left, right)
	}
}

func TestDistributive(t *testing.T) {
	a, b, c := FromInts(2, 3), FromInts(1, 4), FromInts(5, 6)
	bc := mustAdd(t, b, c)
	left, err := a.Mul(bc)
	if err != nil {
		t.Fatal(err)
	}
	ab, err := a.Mul(b)
	if err != nil {
		t.Fatal(err)
	}
	ac, err := a.Mul(c)
	if err != nil {
		t.Fatal(err)
	}
	right := mustAdd(t, ab, ac)
	if !left.Equal(right) {
		t.Errorf("a*(b+c) = %v, a*b+a*c = %v", left, right)
	}
}

func TestMulInverse(t *testing.T) {
	a := FromInts(7, 3)
	inv, err := One().Div(a)
	if err != nil {
		t.Fatal(err)
	}
	product, err := a.Mul(inv)
	if err != nil {
		t.Fatal(err)
	}
	if !product.Equal(One()) {
		t.Errorf("a * a^-1 = %v, want 1", product)
	}
}

func TestInfinityArithmetic(t *testing.T) {
	five := FromInt(5)
	sum := mustAdd(t, five, PosInf())
	if !sum.IsPosInf() {
		t.Errorf("5 + inf = %v, want +inf", sum)
	}

	if _, err := PosInf().Add(NegInf()); err == nil {
		t.Error("expected error for +inf + -inf")
	}

	if _, err := Zero().Div(Zero()); err == nil {
		t.Error("expected error for 0/0")
	}

	if NegInf().Compare(five) >= 0 {
		t.Error("-inf should be less than any finite value")
	}
	if PosInf().Compare(five) <= 0 {
		t.Error("+inf should be greater than any finite value")
	}
}

func TestIsIntegerFloorFrac(t *testing.T) {
	x := FromInts(7, 2)
	if x.IsInteger() {
		t.Error("7/2 should not be an integer")
	}
	floor, err := x.Floor()
	if err != nil {
		t.Fatal(err)
	}
	if !floor.Equal(FromInt(3)) {
		t.Errorf("floor(7/2) = %v, want 3", floor)
	}
	frac, err := x.Frac()
	if err != nil {
		t.Fatal(err)
	}
	if !frac.Equal(FromInts(1, 2)) {
		t.Errorf("frac(7/2) = %v, want 1/2", frac)
	}

	neg := FromInts(-7, 2)
	nfloor, err := neg.Floor()
	if err != nil {
		t.Fatal(err)
	}
	if !nfloor.Equal(FromInt(-4)) {
		t.Errorf("floor(-7/2) = %v, want -4", nfloor)
	}
}

func TestFloorFracInfinityIsError(t *testing.T) {
	if _, err := PosInf().Floor(); err == nil {
		t.Error("expected error flooring +inf")
	}
	if _, err := NegInf().Frac(); err == nil {
		t.Error("expected error taking frac of -inf")
	}
}
