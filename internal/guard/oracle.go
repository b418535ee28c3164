package guard

import (
	"golang.org/x/sync/singleflight"

	"github.com/dta-learner/dta/internal/dbm"
	"github.com/dta-learner/dta/internal/errs"
)

// Oracle is the pluggable constraint-satisfiability decision procedure
// (spec.md §4.D/§9): "isSatisfiable" and "isTrue". The core never depends
// on a specific backend, only on this interface.
type Oracle interface {
	// IsSatisfiable reports whether some valuation in the constraint's
	// clock domain satisfies it. ok is false if the oracle could not
	// decide (Unknown); callers must treat that conservatively.
	IsSatisfiable(c Constraint) (sat bool, ok bool, err error)
}

// dbmOracle decides satisfiability of a pure conjunction of difference
// atoms by building the corresponding DBM and checking emptiness — an
// exact decision procedure for this fragment, standing in for the
// SMT/Z3 backend of the original source (spec.md §1, §4.D).
type dbmOracle struct{}

// NewDBMOracle returns the default, exact constraint oracle.
func NewDBMOracle() Oracle { return dbmOracle{} }

func (dbmOracle) IsSatisfiable(c Constraint) (bool, bool, error) {
	d := dbm.Initial(c.clocks)
	for _, a := range c.atoms {
		if a.IsDiagonal() {
			if a.DiagonalContradiction() {
				return false, true, nil
			}
			continue
		}
		i := d.Index(a.C1)
		j := d.Index(a.C2)
		if i < 0 || j < 0 {
			return false, false, errs.New(errs.ClockSetMismatch, "atom %v references a clock outside the constraint's clock set", a)
		}
		var b dbm.Bound
		if a.Closed {
			b = dbm.Leq(a.Bound)
		} else {
			b = dbm.Lt(a.Bound)
		}
		d = d.IntersectBound(i, j, b)
	}
	return !d.IsEmpty(), true, nil
}

// DefaultOracle is the package-wide default constraint oracle, overridable
// for tests (e.g. a slower, more literal brute-force oracle) via
// SetDefaultOracle.
var DefaultOracle Oracle = NewDBMOracle()

// SetDefaultOracle replaces the package-wide default oracle.
func SetDefaultOracle(o Oracle) { DefaultOracle = o }

// sfGroup deduplicates concurrent oracle calls for syntactically identical
// constraints, implementing the "computation happens once under a
// per-value lock (double-checked)" requirement of spec.md §4.D/§5.
var sfGroup singleflight.Group

// IsSatisfiable decides c's satisfiability using oracle (DefaultOracle when
// oracle is nil), consulting and updating the validity cache.
func (c Constraint) IsSatisfiable(oracle Oracle) (bool, error) {
	if oracle == nil {
		oracle = DefaultOracle
	}

	c.cache.mu.Lock()
	if c.cache.status != NotChecked {
		status := c.cache.status
		c.cache.mu.Unlock()
		return status == True, statusErrIfUnknown(status)
	}
	c.cache.mu.Unlock()

	key := c.signature()
	v, err, _ := sfGroup.Do(key, func() (any, error) {
		sat, ok, err := oracle.IsSatisfiable(c)
		if err != nil {
			return nil, err
		}
		status := False
		switch {
		case !ok:
			status = Unknown
		case sat:
			status = True
		}
		c.cache.mu.Lock()
		if c.cache.status == NotChecked {
			c.cache.status = status
		}
		final := c.cache.status
		c.cache.mu.Unlock()
		return final, nil
	})
	if err != nil {
		return false, err
	}
	status := v.(Status)
	return status == True, statusErrIfUnknown(status)
}

func statusErrIfUnknown(s Status) error {
	if s == Unknown {
		return errs.New(errs.OracleUnknown, "constraint oracle could not decide satisfiability")
	}
	return nil
}

// IsValid reports whether c holds for every valuation in its clock domain,
// i.e. its negation is unsatisfiable.
func (c Constraint) IsValid(oracle Oracle) (bool, error) {
	neg := c.Negate()
	sat, err := neg.IsSatisfiable(oracle)
	if err != nil && !errs.OfKind(err, errs.OracleUnknown) {
		return false, err
	}
	if errs.OfKind(err, errs.OracleUnknown) {
		return false, err
	}
	return !sat, nil
}
