package table

import (
	"fmt"

	"github.com/dta-learner/dta/internal/automaton"
	"github.com/dta-learner/dta/internal/clock"
)

// classGroup is one equivalence class of S-rows in the intermediate DFA:
// its canonical key, and the row every member of the class shares.
type classGroup struct {
	key string
	row Row
}

// rowClasses partitions t.S into equivalence classes by row equality,
// returning the classes in discovery order.
func rowClasses(t *Table) []classGroup {
	var groups []classGroup
	for _, s := range t.S {
		row := t.RowOf(s)
		matched := false
		for _, g := range groups {
			if g.row.Equal(row) {
				matched = true
				break
			}
		}
		if !matched {
			groups = append(groups, classGroup{key: fmt.Sprintf("q%d", len(groups)), row: row})
		}
	}
	return groups
}

// classKeyForRow returns the class whose members share row, and true, or
// false if no S member has that row (never happens for a closed table's
// own S∪R rows, since closedness guarantees a match).
func classKeyForRow(groups []classGroup, row Row) (string, bool) {
	for _, g := range groups {
		if g.row.Equal(row) {
			return g.key, true
		}
	}
	return "", false
}

// Hypothesize builds a DTA hypothesis from t's filled rows by two-stage
// construction (spec.md §4.J): an intermediate DFA over equivalence
// classes of S-rows, then a final DTA whose guards are recovered per
// (location, action) by the partition function from every observed
// post-transition valuation.
func Hypothesize(t *Table) (*automaton.Model, error) {
	groups := rowClasses(t)
	if len(groups) == 0 {
		return nil, fmt.Errorf("hypothesize: table has no rows in S")
	}

	m := automaton.NewModel("hypothesis", t.clocks, t.alphabet)
	locs := make(map[string]clock.Location, len(groups))
	for _, g := range groups {
		locs[g.key] = m.NewLocation(g.key)
	}

	initKey, ok := classKeyForRow(groups, t.RowOf(t.S[0]))
	if !ok {
		return nil, fmt.Errorf("hypothesize: initial row has no class")
	}
	m.SetInit(locs[initKey])

	for _, g := range groups {
		if a, ok := g.row[0]; ok && a.Result == True {
			m.SetAccepting(locs[g.key])
		}
	}

	clocks := t.clocks
	for _, g := range groups {
		for _, action := range t.alphabet.Actions() {
			var psi []valuationWithResets
			for _, s := range t.S {
				key, ok := classKeyForRow(groups, t.RowOf(s))
				if !ok || key != g.key {
					continue
				}
				psi = append(psi, t.AllValuations(s, action)...)
			}
			if len(psi) == 0 {
				continue
			}
			entries, err := Partition(clocks, psi)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				targetKey, ok := classKeyForRow(groups, t.RowOf(entry.Source))
				if !ok {
					return nil, fmt.Errorf("hypothesize: successor row for %v has no class", entry.Source)
				}
				if _, err := m.AddTransition(locs[g.key], action, entry.Guard, entry.Resets, locs[targetKey]); err != nil {
					return nil, err
				}
			}
		}
	}

	return m, nil
}
