// Package table implements the observation table at the heart of the
// learner: prefix/suffix closure and consistency, suffix filling against a
// membership oracle with reset-sequence guessing, counter-example
// integration, the partition function that recovers guards from observed
// valuations, and hypothesis construction into a DTA (spec.md §4.J).
package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/region"
	"github.com/dta-learner/dta/internal/valuation"
	"github.com/dta-learner/dta/internal/word"
)

// TriState is the three-valued membership answer a row entry carries before
// and after filling.
type TriState int

const (
	Unknown TriState = iota
	True
	False
)

func (t TriState) String() string {
	switch t {
	case True:
		return "T"
	case False:
		return "F"
	default:
		return "?"
	}
}

// Answer is one (prefix, suffix) table cell: the membership result and the
// reset-sequence guess (one reset set per suffix step) that produced it.
type Answer struct {
	Result TriState
	Resets [][]clock.Clock
}

// Row is a prefix's contents across every suffix in E, indexed by the
// suffix's position. Two rows are equal iff every entry agrees.
type Row map[int]Answer

// Equal reports whether r and other define the same entries and agree on
// each one (result and reset sequence); an entry present in only one row
// makes them unequal.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i, a := range r {
		b, ok := other[i]
		if !ok || a.Result != b.Result {
			return false
		}
		if !sameResetSequence(a.Resets, b.Resets) {
			return false
		}
	}
	return true
}

func sameResetSequence(a, b [][]clock.Clock) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameResetSet(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameResetSet(a, b []clock.Clock) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ca := range a {
		found := false
		for i, cb := range b {
			if used[i] || !ca.Equal(cb) {
				continue
			}
			used[i] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}

// Table is an observation table (S, R, E) plus the filled f/g function,
// represented as one Row per prefix keyed by its canonical string (spec.md
// §3). Every speculative operation clones the table before mutating it.
type Table struct {
	clocks   clock.Set
	alphabet *clock.Alphabet

	S []word.ResetClockTimedWord
	R []word.ResetClockTimedWord
	E []word.RegionTimedWord

	prefixes   map[string]word.ResetClockTimedWord
	rows       map[string]Row
	guessCount int
}

// New returns an empty table over clocks/alphabet, seeded with S={epsilon}
// and E={epsilon}.
func New(clocks clock.Set, alphabet *clock.Alphabet) *Table {
	t := &Table{
		clocks:   clocks,
		alphabet: alphabet,
		prefixes: make(map[string]word.ResetClockTimedWord),
		rows:     make(map[string]Row),
	}
	t.S = []word.ResetClockTimedWord{{}}
	t.E = []word.RegionTimedWord{{}}
	t.registerPrefix(word.ResetClockTimedWord{})
	return t
}

// Clocks returns the table's clock set.
func (t *Table) Clocks() clock.Set { return t.clocks }

// Alphabet returns the table's alphabet.
func (t *Table) Alphabet() *clock.Alphabet { return t.alphabet }

// GuessCount returns the cumulative number of speculative choices made to
// produce this table.
func (t *Table) GuessCount() int { return t.guessCount }

func (t *Table) registerPrefix(w word.ResetClockTimedWord) string {
	key := prefixKey(w)
	if _, ok := t.prefixes[key]; !ok {
		t.prefixes[key] = w
	}
	if _, ok := t.rows[key]; !ok {
		t.rows[key] = Row{}
	}
	return key
}

// Copy returns a deep, independent clone of t.
func (t *Table) Copy() *Table {
	out := &Table{
		clocks:     t.clocks,
		alphabet:   t.alphabet,
		S:          append([]word.ResetClockTimedWord{}, t.S...),
		R:          append([]word.ResetClockTimedWord{}, t.R...),
		E:          append([]word.RegionTimedWord{}, t.E...),
		prefixes:   make(map[string]word.ResetClockTimedWord, len(t.prefixes)),
		rows:       make(map[string]Row, len(t.rows)),
		guessCount: t.guessCount,
	}
	for k, v := range t.prefixes {
		out.prefixes[k] = v
	}
	for k, row := range t.rows {
		cp := make(Row, len(row))
		for i, a := range row {
			cp[i] = Answer{Result: a.Result, Resets: a.Resets}
		}
		out.rows[k] = cp
	}
	return out
}

// RowOf returns the row recorded for prefix w.
func (t *Table) RowOf(w word.ResetClockTimedWord) Row {
	return t.rows[prefixKey(w)]
}

func (t *Table) setAnswer(w word.ResetClockTimedWord, suffixIdx int, a Answer) {
	key := t.registerPrefix(w)
	t.rows[key][suffixIdx] = a
}

// prefixKey renders a deterministic string identity for a reset-clock-timed
// word, used to index the per-prefix row cache.
func prefixKey(w word.ResetClockTimedWord) string {
	parts := make([]string, len(w))
	for i, step := range w {
		names := make([]string, len(step.Resets))
		for j, c := range step.Resets {
			names[j] = c.Name()
		}
		sort.Strings(names)
		parts[i] = fmt.Sprintf("%s|%s|{%s}", step.Action.Name(), step.Valuation.String(), strings.Join(names, ","))
	}
	return strings.Join(parts, ";")
}

// suffixKey renders a deterministic string identity for a region-timed
// suffix, used by the distinguishing-suffix search in consistency checking.
func suffixKey(e word.RegionTimedWord) string {
	parts := make([]string, len(e))
	for i, step := range e {
		parts[i] = step.Action.Name() + "|" + step.Region.String()
	}
	return strings.Join(parts, ";")
}

// lastStepRegion returns the single-step RegionStep describing the region
// of w's last step's pre-reset valuation, used by guessConsistency to
// build a new distinguishing suffix (spec.md §4.J).
func lastStepRegion(w word.ResetClockTimedWord, clocks clock.Set) (word.RegionStep, error) {
	last := w[len(w)-1]
	r, err := region.FromValuation(last.Valuation, clocks)
	if err != nil {
		return word.RegionStep{}, err
	}
	return word.RegionStep{Action: last.Action, Region: r}, nil
}

// SR returns S union R, in S-then-R order, without duplicates (R entries
// equal to some S entry are skipped).
func (t *Table) SR() []word.ResetClockTimedWord {
	out := make([]word.ResetClockTimedWord, 0, len(t.S)+len(t.R))
	seen := make(map[string]bool)
	for _, w := range t.S {
		seen[prefixKey(w)] = true
		out = append(out, w)
	}
	for _, w := range t.R {
		key := prefixKey(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}

// Closed reports whether every r in R has a matching row among S.
func (t *Table) Closed() bool {
	for _, r := range t.R {
		if !t.hasMatchInS(r) {
			return false
		}
	}
	return true
}

func (t *Table) hasMatchInS(r word.ResetClockTimedWord) bool {
	rr := t.RowOf(r)
	for _, s := range t.S {
		if t.RowOf(s).Equal(rr) {
			return true
		}
	}
	return false
}

// UnclosedRow returns one r in R with no matching S row, and true, or
// (nil, false) if the table is already closed.
func (t *Table) UnclosedRow() (word.ResetClockTimedWord, bool) {
	for _, r := range t.R {
		if !t.hasMatchInS(r) {
			return r, true
		}
	}
	return nil, false
}

// EvidenceClosed is a stub: the source this design is learned from leaves
// its evidence-closedness check unimplemented (always true) pending further
// specification, so this follows suit rather than inventing semantics.
func (t *Table) EvidenceClosed() bool { return true }

// Prepared reports whether t is ready for hypothesis construction: closed,
// consistent, and evidence-closed.
func (t *Table) Prepared() bool {
	_, _, consistent := t.Consistent()
	return t.Closed() && consistent && t.EvidenceClosed()
}

// RowMismatch records a consistency violation between two S∪R members that
// share a row on their common prefix and last-step region, but disagree
// further out.
type RowMismatch struct {
	W1, W2          word.ResetClockTimedWord
	DistinguishingE int // index into t.E of the suffix where the rows first disagree
}

// ResetMismatch records a consistency violation where two S∪R members agree
// on row and region but used different last-step reset guesses.
type ResetMismatch struct {
	W1, W2 word.ResetClockTimedWord
}

// Consistent reports whether the table has no consistency violation, and
// returns the first one found otherwise (as exactly one of the two mismatch
// kinds, the other left as its zero value).
func (t *Table) Consistent() (rowMismatch *RowMismatch, resetMismatch *ResetMismatch, ok bool) {
	sr := t.SR()
	for i, w1 := range sr {
		if len(w1) == 0 {
			continue
		}
		y1 := w1[:len(w1)-1]
		row1 := t.rows[prefixKey(y1)]
		reg1, err := lastStepRegion(w1, t.clocks)
		if err != nil {
			continue
		}
		for j, w2 := range sr {
			if i == j || len(w2) == 0 {
				continue
			}
			y2 := w2[:len(w2)-1]
			row2, ok := t.rows[prefixKey(y2)]
			if !ok || !row1.Equal(row2) {
				continue
			}
			reg2, err := lastStepRegion(w2, t.clocks)
			if err != nil || !reg1.Region.Equal(reg2.Region) || reg1.Action.Name() != reg2.Action.Name() {
				continue
			}
			rowW1, rowW2 := t.RowOf(w1), t.RowOf(w2)
			if idx, mismatched := firstMismatch(rowW1, rowW2); mismatched {
				return &RowMismatch{W1: w1, W2: w2, DistinguishingE: idx}, nil, false
			}
			if !sameResetSet(w1[len(w1)-1].Resets, w2[len(w2)-1].Resets) {
				return nil, &ResetMismatch{W1: w1, W2: w2}, false
			}
		}
	}
	return nil, nil, true
}

func firstMismatch(a, b Row) (int, bool) {
	for i, av := range a {
		bv, ok := b[i]
		if !ok {
			continue
		}
		if av.Result != bv.Result || !sameResetSequence(av.Resets, bv.Resets) {
			return i, true
		}
	}
	return 0, false
}

// AllValuations returns the post-transition valuation recorded at every
// member of S∪R whose last step is labelled action out of a source row
// (the row of the prefix preceding that step), used as the Ψ input to the
// partition function for location l (= the equivalence class of rowPrefix)
// and action.
func (t *Table) AllValuations(rowPrefix word.ResetClockTimedWord, action clock.Action) []valuationWithResets {
	var out []valuationWithResets
	rowP := t.RowOf(rowPrefix)
	for _, w := range t.SR() {
		if len(w) == 0 {
			continue
		}
		y := w[:len(w)-1]
		if !t.RowOf(y).Equal(rowP) {
			continue
		}
		last := w[len(w)-1]
		if last.Action.Name() != action.Name() {
			continue
		}
		out = append(out, valuationWithResets{word: w, valuation: last.Valuation, resets: last.Resets})
	}
	return out
}

type valuationWithResets struct {
	word      word.ResetClockTimedWord
	valuation valuation.Valuation
	resets    []clock.Clock
}
