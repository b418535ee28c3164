// Package persist implements the on-disk DTA document format (spec.md §6):
// a JSON object naming clocks, actions, locations, and transitions, with
// each transition's guard written as a map from clock name to an interval
// string. The format only ever encodes single-clock bounds; a live model's
// genuine difference atoms (between two non-zero clocks) have no slot in
// the format and are dropped on export, with a warning logged for each.
package persist

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/dta-learner/dta/internal/automaton"
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/rational"
)

// Document is the parsed form of a DTA file.
type Document struct {
	Name         string          `json:"name"`
	Clocks       []string        `json:"clocks"`
	Actions      []string        `json:"actions"`
	Locations    []LocationDoc   `json:"locations"`
	InitLocation string          `json:"init_location"`
	Transitions  []TransitionDoc `json:"transitions"`
}

// LocationDoc is one entry of Document.Locations. Invariant is carried
// through import/export but not acted on: no part of the learned or
// simulated DTA semantics defines a per-location invariant, so it is
// preserved only as a round-trippable annotation.
type LocationDoc struct {
	Name      string `json:"name"`
	Accepting bool   `json:"accepting"`
	Invariant string `json:"invariant,omitempty"`
}

// TransitionDoc is one entry of Document.Transitions. Guard maps a clock
// name to an interval string "[lo,hi]" / "[lo,hi)" / "(lo,hi]" / "(lo,hi)",
// where lo may be "-" and hi may be "+".
type TransitionDoc struct {
	Source string            `json:"source"`
	Action string            `json:"action"`
	Guard  map[string]string `json:"guard,omitempty"`
	Reset  []string          `json:"reset,omitempty"`
	Target string            `json:"target"`
}

// Decode parses a Document from data.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("persist: parse document: %w", err)
	}
	return &doc, nil
}

// Encode renders doc as indented JSON.
func Encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Import builds a *automaton.Model from doc. Per-clock kappa is inferred as
// the largest integer bound appearing in any guard naming that clock
// (spec.md §6); a non-integer bound never raises kappa, and a clock named
// in Document.Clocks but never bounded gets kappa 1.
func Import(doc *Document) (*automaton.Model, error) {
	kappas, err := inferKappas(doc)
	if err != nil {
		return nil, err
	}
	return buildModel(doc, kappas)
}

// ImportWithKappaOverrides is Import, except overrides replaces the
// inferred kappa for any clock it names. The caller is trusted to pick an
// override that still dominates every guard bound that clock appears in
// (a learner-config kappa override is a deliberate widen/narrow, not a
// value this package can validate against the document's own guards).
func ImportWithKappaOverrides(doc *Document, overrides map[string]int) (*automaton.Model, error) {
	kappas, err := inferKappas(doc)
	if err != nil {
		return nil, err
	}
	for name, k := range overrides {
		kappas[name] = k
	}
	return buildModel(doc, kappas)
}

func inferKappas(doc *Document) (map[string]int, error) {
	kappas := make(map[string]int, len(doc.Clocks))
	for _, name := range doc.Clocks {
		kappas[name] = 1
	}
	for _, td := range doc.Transitions {
		for clockName, interval := range td.Guard {
			lo, hi, _, _, err := parseInterval(interval)
			if err != nil {
				return nil, fmt.Errorf("persist: transition %s->%s: clock %q: %w", td.Source, td.Target, clockName, err)
			}
			for _, b := range []rational.Rational{lo, hi} {
				if b.IsInfinite() || !b.IsInteger() {
					continue
				}
				iv, err := b.FloorInt()
				if err != nil {
					continue
				}
				if int(iv) > kappas[clockName] {
					kappas[clockName] = int(iv)
				}
			}
		}
	}
	return kappas, nil
}

func buildModel(doc *Document, kappas map[string]int) (*automaton.Model, error) {
	clocksByName := make(map[string]clock.Clock, len(doc.Clocks))
	var ordered []clock.Clock
	for _, name := range doc.Clocks {
		c := clock.NewClock(name, kappas[name])
		clocksByName[name] = c
		ordered = append(ordered, c)
	}
	clockSet := clock.NewSet(ordered...)

	alphabet := clock.NewAlphabet()
	for _, name := range doc.Actions {
		alphabet.CreateAction(name)
	}

	m := automaton.NewModel(doc.Name, clockSet, alphabet)
	locsByName := make(map[string]clock.Location, len(doc.Locations))
	for _, ld := range doc.Locations {
		l := m.NewLocation(ld.Name)
		locsByName[ld.Name] = l
		if ld.Accepting {
			m.SetAccepting(l)
		}
	}
	init, ok := locsByName[doc.InitLocation]
	if !ok {
		return nil, fmt.Errorf("persist: init location %q not declared among locations", doc.InitLocation)
	}
	m.SetInit(init)

	for _, td := range doc.Transitions {
		source, ok := locsByName[td.Source]
		if !ok {
			return nil, fmt.Errorf("persist: transition references unknown source location %q", td.Source)
		}
		target, ok := locsByName[td.Target]
		if !ok {
			return nil, fmt.Errorf("persist: transition references unknown target location %q", td.Target)
		}
		action, ok := alphabet.Lookup(td.Action)
		if !ok {
			return nil, fmt.Errorf("persist: transition references unknown action %q", td.Action)
		}

		var atoms []guard.Atom
		for clockName, interval := range td.Guard {
			c, ok := clocksByName[clockName]
			if !ok {
				return nil, fmt.Errorf("persist: guard references undeclared clock %q", clockName)
			}
			lo, hi, loClosed, hiClosed, err := parseInterval(interval)
			if err != nil {
				return nil, err
			}
			if !(loClosed && lo.Sign() == 0) {
				if loClosed {
					atoms = append(atoms, guard.ClockGeq(c, lo))
				} else {
					atoms = append(atoms, guard.ClockGt(c, lo))
				}
			}
			if !hi.IsInfinite() {
				if hiClosed {
					atoms = append(atoms, guard.ClockLeq(c, hi))
				} else {
					atoms = append(atoms, guard.ClockLt(c, hi))
				}
			}
		}
		g := guard.New(clockSet, atoms...)

		var resets []clock.Clock
		for _, rn := range td.Reset {
			c, ok := clocksByName[rn]
			if !ok {
				return nil, fmt.Errorf("persist: reset references undeclared clock %q", rn)
			}
			resets = append(resets, c)
		}

		if _, err := m.AddTransition(source, action, g, resets, target); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Export renders m as a Document. log defaults to slog.Default() when nil.
func Export(m *automaton.Model, log *slog.Logger) *Document {
	if log == nil {
		log = slog.Default()
	}
	doc := &Document{Name: m.Name()}
	for _, c := range m.Clocks().Clocks() {
		doc.Clocks = append(doc.Clocks, c.Name())
	}
	for _, a := range m.Alphabet().Actions() {
		doc.Actions = append(doc.Actions, a.Name())
	}
	if init, ok := m.Init(); ok {
		doc.InitLocation = init.Label()
	}
	for _, l := range m.Locations() {
		if l.IsSink() {
			continue
		}
		doc.Locations = append(doc.Locations, LocationDoc{Name: l.Label(), Accepting: m.IsAccepting(l)})
	}
	for _, t := range m.Transitions() {
		guardDoc, dropped := intervalsFor(t.Guard)
		for _, d := range dropped {
			log.Warn("persist: dropping difference atom on export, interval format encodes single-clock bounds only",
				"transition", fmt.Sprintf("%s -[%s]-> %s", t.Source.Label(), t.Action.Name(), t.Target.Label()),
				"atom", d)
		}
		var resets []string
		for _, c := range t.Resets {
			resets = append(resets, c.Name())
		}
		doc.Transitions = append(doc.Transitions, TransitionDoc{
			Source: t.Source.Label(),
			Action: t.Action.Name(),
			Guard:  guardDoc,
			Reset:  resets,
			Target: t.Target.Label(),
		})
	}
	return doc
}

type bound struct {
	ok     bool
	value  rational.Rational
	closed bool
}

// tighterBound reports whether cand is at least as tight as cur for a bound
// of the given kind (upper: smaller wins; lower: larger wins); equal values
// prefer the strict (open) bound, the subset relation for either kind.
func tighterBound(cand, cur bound, upper bool) bool {
	cmp := cand.value.Compare(cur.value)
	if upper {
		if cmp < 0 {
			return true
		}
		if cmp > 0 {
			return false
		}
	} else {
		if cmp > 0 {
			return true
		}
		if cmp < 0 {
			return false
		}
	}
	return !cand.closed && cur.closed
}

// intervalsFor folds g's single-clock atoms into one interval string per
// clock, and reports the string form of every difference atom it could not
// represent.
func intervalsFor(g guard.Constraint) (map[string]string, []string) {
	low := make(map[string]bound)
	up := make(map[string]bound)
	var order []string
	var dropped []string

	for _, a := range g.Atoms() {
		switch {
		case a.IsDiagonal():
			continue
		case a.C2.IsZero() && !a.C1.IsZero():
			name := a.C1.Name()
			if _, seen := up[name]; !seen {
				order = append(order, name)
			}
			cand := bound{ok: true, value: a.Bound, closed: a.Closed}
			if cur, ok := up[name]; !ok || tighterBound(cand, cur, true) {
				up[name] = cand
			}
		case a.C1.IsZero() && !a.C2.IsZero():
			name := a.C2.Name()
			if _, seen := low[name]; !seen {
				order = append(order, name)
			}
			cand := bound{ok: true, value: a.Bound.Neg(), closed: a.Closed}
			if cur, ok := low[name]; !ok || tighterBound(cand, cur, false) {
				low[name] = cand
			}
		default:
			dropped = append(dropped, a.String())
		}
	}

	seen := make(map[string]bool, len(order))
	out := make(map[string]string, len(order))
	for _, name := range order {
		if seen[name] {
			continue
		}
		seen[name] = true
		l, lok := low[name]
		u, uok := up[name]

		var loStr string
		openLo := false
		if !lok || (l.closed && l.value.Sign() == 0) {
			loStr = "-"
		} else {
			loStr = l.value.String()
			openLo = !l.closed
		}

		var hiStr string
		openHi := false
		if !uok {
			hiStr = "+"
		} else {
			hiStr = u.value.String()
			openHi = !u.closed
		}

		if loStr == "-" && hiStr == "+" {
			// Every clock in the guard's clock set carries an implicit
			// c>=0 atom (guard.New); a clock with nothing else constraining
			// it resolves to exactly this trivial interval and is omitted
			// from the document rather than written out as a no-op entry.
			continue
		}

		openBr := "["
		if openLo {
			openBr = "("
		}
		closeBr := "]"
		if openHi {
			closeBr = ")"
		}
		out[name] = fmt.Sprintf("%s%s,%s%s", openBr, loStr, hiStr, closeBr)
	}
	return out, dropped
}

// parseInterval parses an interval string "[lo,hi]" (or any combination of
// "[" "(" / "]" ")") into bounds and their closedness. lo=="-" denotes the
// implicit clamped-to-zero lower bound; hi=="+" denotes no upper bound.
func parseInterval(s string) (lo, hi rational.Rational, loClosed, hiClosed bool, err error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return lo, hi, false, false, fmt.Errorf("malformed interval %q", s)
	}
	switch s[0] {
	case '[':
		loClosed = true
	case '(':
		loClosed = false
	default:
		return lo, hi, false, false, fmt.Errorf("interval %q must start with [ or (", s)
	}
	switch s[len(s)-1] {
	case ']':
		hiClosed = true
	case ')':
		hiClosed = false
	default:
		return lo, hi, false, false, fmt.Errorf("interval %q must end with ] or )", s)
	}
	body := s[1 : len(s)-1]
	parts := strings.SplitN(body, ",", 2)
	if len(parts) != 2 {
		return lo, hi, false, false, fmt.Errorf("interval %q must have exactly one comma", s)
	}
	loTok := strings.TrimSpace(parts[0])
	hiTok := strings.TrimSpace(parts[1])

	if loTok == "-" {
		lo, loClosed = rational.Zero(), true
	} else {
		lo, err = parseRational(loTok)
		if err != nil {
			return lo, hi, false, false, fmt.Errorf("interval %q: lower bound: %w", s, err)
		}
	}
	if hiTok == "+" {
		hi = rational.PosInf()
	} else {
		hi, err = parseRational(hiTok)
		if err != nil {
			return lo, hi, false, false, fmt.Errorf("interval %q: upper bound: %w", s, err)
		}
	}
	return lo, hi, loClosed, hiClosed, nil
}

func parseRational(tok string) (rational.Rational, error) {
	r := new(big.Rat)
	if _, ok := r.SetString(tok); !ok {
		return rational.Rational{}, fmt.Errorf("not a rational number: %q", tok)
	}
	return rational.FromBigRat(r), nil
}
