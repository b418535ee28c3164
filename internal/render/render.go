// Package render pretty-prints DTAs and observation tables for the CLI's
// `inspect` subcommand (spec.md §1's "identifier-generation and
// human-readable printing are mechanical" note, implemented rather than
// stubbed per SPEC_FULL.md's SUPPLEMENTED FEATURES item 5).
package render

import (
	"fmt"
	"sort"
	"strings"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/dta-learner/dta/internal/automaton"
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/table"
	"github.com/dta-learner/dta/internal/word"
)

// Model renders m's locations and transitions as an ASCII table.
func Model(m *automaton.Model) string {
	w := prettytable.NewWriter()
	w.SetStyle(prettytable.StyleLight)
	w.SetTitle(m.Name())
	w.AppendHeader(prettytable.Row{"Source", "Action", "Guard", "Reset", "Target"})

	init, hasInit := m.Init()
	for _, t := range m.Transitions() {
		source := t.Source.Label()
		if hasInit && t.Source.Equal(init) {
			source += " (init)"
		}
		target := t.Target.Label()
		if m.IsAccepting(t.Target) {
			target += " (accepting)"
		}
		w.AppendRow(prettytable.Row{source, t.Action.Name(), t.Guard.String(), clockNames(t.Resets), target})
	}
	return w.Render()
}

// Table renders an observation table's S/R rows against its E suffixes:
// one row per prefix, one column per suffix, entries are the filled
// membership answer ("T"/"F"/"?").
func Table(t *table.Table) string {
	w := prettytable.NewWriter()
	w.SetStyle(prettytable.StyleLight)
	w.Style().Format.Header = text.FormatDefault

	header := prettytable.Row{"prefix"}
	for i := range t.E {
		header = append(header, fmt.Sprintf("e%d", i))
	}
	w.AppendHeader(header)

	for _, p := range t.SR() {
		row := prettytable.Row{prefixLabel(p)}
		r := t.RowOf(p)
		for i := range t.E {
			a, ok := r[i]
			if !ok {
				row = append(row, "?")
				continue
			}
			row = append(row, a.Result.String())
		}
		w.AppendRow(row)
	}
	return w.Render()
}

func clockNames(cs []clock.Clock) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name()
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func prefixLabel(w word.ResetClockTimedWord) string {
	if len(w) == 0 {
		return "epsilon"
	}
	parts := make([]string, len(w))
	for i, step := range w {
		parts[i] = fmt.Sprintf("%s%s{%s}", step.Action.Name(), step.Valuation.String(), clockNames(step.Resets))
	}
	return strings.Join(parts, "; ")
}
