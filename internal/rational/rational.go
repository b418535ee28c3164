// Package rational implements exact arithmetic over the rationals extended
// with +/-infinity, as required by the difference-bound matrices and guard
// algebra layered on top of it. math/big.Rat supplies the exact finite
// arithmetic; no example in the retrieval pack ships a rational-number type,
// so this is the one place the implementation reaches for the standard
// library rather than a pack dependency (see DESIGN.md).
package rational

import (
	"fmt"
	"math/big"

	"github.com/dta-learner/dta/internal/errs"
)

// sign is the kind of a Rational: finite, or one of the two infinities.
type sign int8

const (
	finite sign = 0
	posInf sign = 1
	negInf sign = -1
)

// Rational is an exact rational number, or +/-infinity. The zero value is
// the rational 0.
type Rational struct {
	s sign
	r big.Rat // only meaningful when s == finite
}

// EPSILON is a small positive rational used as a last-resort nudge by the
// delay solver (spec §4.F/§9) when no simpler strictly-interior rational is
// available. Its value is an implementation choice but is fixed and
// reproducible.
var EPSILON = FromInts(1, 1_000_000_000)

// Zero is the rational 0.
func Zero() Rational { return Rational{} }

// One is the rational 1.
func One() Rational { return FromInt(1) }

// PosInf is +infinity.
func PosInf() Rational { return Rational{s: posInf} }

// NegInf is -infinity.
func NegInf() Rational { return Rational{s: negInf} }

// FromInt builds the rational n/1.
func FromInt(n int64) Rational {
	var r Rational
	r.r.SetInt64(n)
	return r
}

// FromInts builds the rational num/den in lowest terms. den must be
// non-zero; a negative den is normalized by flipping both signs.
func FromInts(num, den int64) Rational {
	var r Rational
	r.r.SetFrac64(num, den)
	return r
}

// FromBigRat wraps an existing big.Rat as a finite Rational.
func FromBigRat(r *big.Rat) Rational {
	var out Rational
	out.r.Set(r)
	return out
}

// IsPosInf reports whether the value is +infinity.
func (x Rational) IsPosInf() bool { return x.s == posInf }

// IsNegInf reports whether the value is -infinity.
func (x Rational) IsNegInf() bool { return x.s == negInf }

// IsInfinite reports whether the value is either infinity.
func (x Rational) IsInfinite() bool { return x.s != finite }

// IsFinite reports whether the value is a finite rational.
func (x Rational) IsFinite() bool { return x.s == finite }

// Add returns x+y. x+(+inf) = +inf for finite x; (+inf)+(+inf) = +inf;
// (+inf)+(-inf) returns an InvalidRational error.
func (x Rational) Add(y Rational) (Rational, error) {
	if x.s == finite && y.s == finite {
		var out Rational
		out.r.Add(&x.r, &y.r)
		return out, nil
	}
	if x.s != finite && y.s != finite && x.s != y.s {
		return Rational{}, errs.New(errs.InvalidRational, "+inf - inf is undefined")
	}
	if x.s != finite {
		return Rational{s: x.s}, nil
	}
	return Rational{s: y.s}, nil
}

// Sub returns x-y.
func (x Rational) Sub(y Rational) (Rational, error) {
	return x.Add(y.Neg())
}

// Neg returns -x.
func (x Rational) Neg() Rational {
	if x.s != finite {
		return Rational{s: -x.s}
	}
	var out Rational
	out.r.Neg(&x.r)
	return out
}

// Mul returns x*y. 0 * (+-inf) is undefined.
func (x Rational) Mul(y Rational) (Rational, error) {
	if x.s == finite && y.s == finite {
		var out Rational
		out.r.Mul(&x.r, &y.r)
		return out, nil
	}
	xZero := x.s == finite && x.r.Sign() == 0
	yZero := y.s == finite && y.r.Sign() == 0
	if xZero || yZero {
		return Rational{}, errs.New(errs.InvalidRational, "0 * infinity is undefined")
	}
	resultSign := resultInfSign(x, y)
	return Rational{s: resultSign}, nil
}

func resultInfSign(x, y Rational) sign {
	sx := signOf(x)
	sy := signOf(y)
	if sx*sy > 0 {
		return posInf
	}
	return negInf
}

func signOf(x Rational) int {
	if x.s != finite {
		return int(x.s)
	}
	return x.r.Sign()
}

// Div returns x/y. Division by zero, and infinity/infinity, are undefined.
func (x Rational) Div(y Rational) (Rational, error) {
	if y.s == finite && y.r.Sign() == 0 {
		return Rational{}, errs.New(errs.InvalidRational, "division by zero")
	}
	if x.s != finite && y.s != finite {
		return Rational{}, errs.New(errs.InvalidRational, "infinity / infinity is undefined")
	}
	if y.s != finite {
		return Rational{}, nil
	}
	if x.s != finite {
		if y.r.Sign() < 0 {
			return Rational{s: -x.s}, nil
		}
		return Rational{s: x.s}, nil
	}
	var out Rational
	out.r.Quo(&x.r, &y.r)
	return out, nil
}

// Compare returns -1, 0, or 1 as x<y, x==y, x>y, under the total order
// -inf < finite < +inf.
func (x Rational) Compare(y Rational) int {
	if x.s != y.s {
		if x.s < y.s {
			return -1
		}
		return 1
	}
	if x.s != finite {
		return 0
	}
	return x.r.Cmp(&y.r)
}

// Equal reports whether x and y denote the same value.
func (x Rational) Equal(y Rational) bool { return x.Compare(y) == 0 }

// Less reports whether x < y.
func (x Rational) Less(y Rational) bool { return x.Compare(y) < 0 }

// LessEqual reports whether x <= y.
func (x Rational) LessEqual(y Rational) bool { return x.Compare(y) <= 0 }

// IsInteger reports whether x is a finite value with denominator 1.
func (x Rational) IsInteger() bool {
	return x.s == finite && x.r.IsInt()
}

// Floor returns the greatest integer <= x, as a Rational. Defined only for
// finite x.
func (x Rational) Floor() (Rational, error) {
	if x.s != finite {
		return Rational{}, errs.New(errs.InvalidRational, "floor of infinity is undefined")
	}
	q := new(big.Int)
	mod := new(big.Int)
	q.DivMod(x.r.Num(), x.r.Denom(), mod)
	var out Rational
	out.r.SetInt(q)
	return out, nil
}

// FloorInt is Floor truncated to an int64, for indexing integer parts of
// clock valuations (which are always small non-negative values bounded by
// kappa in practice).
func (x Rational) FloorInt() (int64, error) {
	f, err := x.Floor()
	if err != nil {
		return 0, err
	}
	return f.r.Num().Int64(), nil
}

// Frac returns x - floor(x), a value in [0,1). Defined only for finite x.
func (x Rational) Frac() (Rational, error) {
	f, err := x.Floor()
	if err != nil {
		return Rational{}, err
	}
	return x.Sub(f)
}

// IsFracZero reports whether x has a zero fractional part. Defined only for
// finite x.
func (x Rational) IsFracZero() bool {
	return x.s == finite && x.IsInteger()
}

// Sign returns -1, 0, or 1 for negative, zero, or positive finite values,
// and +-1 for the corresponding infinity.
func (x Rational) Sign() int { return signOf(x) }

// String renders x as "n/d", an integer, "+inf", or "-inf".
func (x Rational) String() string {
	switch x.s {
	case posInf:
		return "+inf"
	case negInf:
		return "-inf"
	}
	if x.r.IsInt() {
		return x.r.Num().String()
	}
	return fmt.Sprintf("%s/%s", x.r.Num().String(), x.r.Denom().String())
}

// BigRat returns the underlying big.Rat. Only valid for finite x; callers
// must check IsFinite first.
func (x Rational) BigRat() *big.Rat {
	out := new(big.Rat)
	out.Set(&x.r)
	return out
}

// Max returns the larger of x and y under Compare.
func Max(x, y Rational) Rational {
	if x.Less(y) {
		return y
	}
	return x
}

// Min returns the smaller of x and y under Compare.
func Min(x, y Rational) Rational {
	if y.Less(x) {
		return y
	}
	return x
}
