// Package dbm implements difference-bound matrices: the symbolic
// representation of a convex zone of clock valuations used both by the
// constraint oracle (internal/guard) for satisfiability of linear rational
// difference logic, and by the witness search (internal/automaton) for
// zone-based reachability (spec.md §4.F).
package dbm

import (
	"fmt"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/rational"
)

// Bound is one DBM entry: an upper bound V on a clock difference, either
// closed (<=V) or open (<V). An infinite bound is always open, by
// convention, since +inf is never attained.
type Bound struct {
	Value  rational.Rational
	Closed bool
}

func normalize(b Bound) Bound {
	if b.Value.IsInfinite() {
		return Bound{Value: b.Value, Closed: false}
	}
	return b
}

// Infinite is the unconstrained bound (+inf, <).
func Infinite() Bound { return Bound{Value: rational.PosInf(), Closed: false} }

// Leq is the closed bound <= v.
func Leq(v rational.Rational) Bound { return normalize(Bound{Value: v, Closed: true}) }

// Lt is the open bound < v.
func Lt(v rational.Rational) Bound { return normalize(Bound{Value: v, Closed: false}) }

// tighter reports whether a is at least as tight (small) as b under the
// bound order: smaller value wins; at equal value, open (<) beats closed
// (<=).
func tighter(a, b Bound) bool {
	c := a.Value.Compare(b.Value)
	if c != 0 {
		return c < 0
	}
	if a.Closed == b.Closed {
		return true // equal, "a is at least as tight" holds
	}
	return !a.Closed // a open, b closed: a is tighter
}

// min returns the tighter of a, b.
func min(a, b Bound) Bound {
	if tighter(a, b) {
		return a
	}
	return b
}

// add combines two bounds along a path: (a,V1)+(b,V2) = (V1+V2, closed(a)&&closed(b)).
func add(a, b Bound) Bound {
	sum, err := a.Value.Add(b.Value)
	if err != nil {
		// Only reachable if the two bounds are +inf and -inf, which never
		// occurs for DBM bounds (bounds are finite, possibly negative, or
		// +inf; -inf is never stored).
		panic(fmt.Sprintf("dbm: invalid bound addition: %v", err))
	}
	return normalize(Bound{Value: sum, Closed: a.Closed && b.Closed})
}

func (b Bound) String() string {
	if b.Closed {
		return fmt.Sprintf("<=%v", b.Value)
	}
	return fmt.Sprintf("<%v", b.Value)
}

// DBM is a difference-bound matrix over a clock set, with the zero clock
// implicitly at index 0.
type DBM struct {
	clocks clock.Set
	n      int // clocks.Len()+1
	m      [][]Bound
}

// Initial returns the non-negative orthant over clocks: every clock may
// take any value >= 0, with no upper bound.
func Initial(clocks clock.Set) *DBM {
	n := clocks.Len() + 1
	d := newMatrix(clocks, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case i == j:
				d.m[i][j] = Leq(rational.Zero())
			case i == 0:
				d.m[i][j] = Leq(rational.Zero())
			default:
				d.m[i][j] = Infinite()
			}
		}
	}
	return d
}

func newMatrix(clocks clock.Set, n int) *DBM {
	d := &DBM{clocks: clocks, n: n, m: make([][]Bound, n)}
	for i := range d.m {
		d.m[i] = make([]Bound, n)
	}
	return d
}

// Clocks returns the clock set the DBM is defined over.
func (d *DBM) Clocks() clock.Set { return d.clocks }

// Copy returns a deep, independent clone of d.
func (d *DBM) Copy() *DBM {
	out := newMatrix(d.clocks, d.n)
	for i := range d.m {
		copy(out.m[i], d.m[i])
	}
	return out
}

// At returns M[i][j], the bound on clock-index i minus clock-index j (index
// 0 is the zero clock).
func (d *DBM) At(i, j int) Bound { return d.m[i][j] }

// Set sets M[i][j] directly. Exposed for builder-style in-place
// construction; per spec.md §3, DBMs are immutable values once shared, so
// callers must Copy before mutating a DBM another value might alias.
func (d *DBM) Set(i, j int, b Bound) { d.m[i][j] = normalize(b) }

// Index returns the row/column index of c (0 for the zero clock), or -1 if
// c is not in the DBM's clock set.
func (d *DBM) Index(c clock.Clock) int { return d.clocks.IndexOf(c) }

// Up performs the time-elapse step: clears every clock's upper bound
// against the zero clock, i.e. M[i][0] <- (+inf,<) for i>=1.
func (d *DBM) Up() *DBM {
	out := d.Copy()
	for i := 1; i < out.n; i++ {
		out.m[i][0] = Infinite()
	}
	return out
}

// Future is Up followed by Canonical: the zone reachable by letting an
// arbitrary non-negative delay elapse.
func (d *DBM) Future() *DBM {
	return d.Up().Canonical()
}

// Reset returns a new DBM with clock c reset to 0: row 0 is copied into
// c's row, column 0 into c's column, and the diagonal entry set to (0,<=).
func (d *DBM) Reset(c clock.Clock) (*DBM, error) {
	idx := d.Index(c)
	if idx < 0 {
		return nil, errs.New(errs.UnknownClock, "clock %q not in DBM's clock set", c.Name())
	}
	out := d.Copy()
	if idx == 0 {
		return out, nil
	}
	copy(out.m[idx], out.m[0])
	for i := 0; i < out.n; i++ {
		out.m[i][idx] = out.m[i][0]
	}
	out.m[idx][idx] = Leq(rational.Zero())
	return out, nil
}

// ResetAll resets every clock in resets by resetting each in turn (one
// Reset, and so one copy, per clock); it always returns a fresh DBM.
func (d *DBM) ResetAll(resets []clock.Clock) (*DBM, error) {
	out := d
	for _, c := range resets {
		if c.IsZero() {
			continue
		}
		next, err := out.Reset(c)
		if err != nil {
			return nil, err
		}
		out = next
	}
	if out == d {
		return d.Copy(), nil
	}
	return out, nil
}

// IntersectBound tightens M[i][j] with b. i and j are DBM indices (0 for
// the zero clock).
func (d *DBM) IntersectBound(i, j int, b Bound) *DBM {
	out := d.Copy()
	out.m[i][j] = min(out.m[i][j], b)
	return out
}

// Canonical returns the canonical (shortest-path closed) form of d, via
// Floyd-Warshall over the tropical-like semiring (add = sum bounds along a
// path, tighten = keep the smaller).
func (d *DBM) Canonical() *DBM {
	out := d.Copy()
	n := out.n
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if i != k && out.m[i][k].Value.IsPosInf() {
				continue
			}
			for j := 0; j < n; j++ {
				via := add(out.m[i][k], out.m[k][j])
				out.m[i][j] = min(out.m[i][j], via)
			}
		}
	}
	return out
}

// IsEmpty reports whether the zone is empty: some diagonal entry is
// negative, or exactly 0 but open. d should already be canonical; IsEmpty
// canonicalizes defensively if it was not.
func (d *DBM) IsEmpty() bool {
	c := d.Canonical()
	for i := 0; i < c.n; i++ {
		diag := c.m[i][i]
		if diag.Value.Sign() < 0 {
			return true
		}
		if diag.Value.Sign() == 0 && !diag.Closed {
			return true
		}
	}
	return false
}

// Include reports whether d's zone includes other's zone (every valuation
// satisfying other also satisfies d). Both must share the same clock set.
func (d *DBM) Include(other *DBM) (bool, error) {
	if !d.clocks.Equal(other.clocks) {
		return false, errs.New(errs.ClockSetMismatch, "DBM clock sets differ")
	}
	dc := d.Canonical()
	oc := other.Canonical()
	for i := 0; i < dc.n; i++ {
		for j := 0; j < dc.n; j++ {
			// d includes other iff every bound of d is looser (>=) than
			// the corresponding bound of other: d fails to include other
			// as soon as d is strictly tighter somewhere.
			if tighter(dc.m[i][j], oc.m[i][j]) && !sameBound(dc.m[i][j], oc.m[i][j]) {
				return false, nil
			}
		}
	}
	return true, nil
}

func sameBound(a, b Bound) bool {
	return a.Value.Equal(b.Value) && a.Closed == b.Closed
}

// String renders the matrix for debugging.
func (d *DBM) String() string {
	out := ""
	for i := 0; i < d.n; i++ {
		for j := 0; j < d.n; j++ {
			out += fmt.Sprintf("%8s", d.m[i][j].String())
		}
		out += "\n"
	}
	return out
}
