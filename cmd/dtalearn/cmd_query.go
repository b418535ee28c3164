package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dta-learner/dta/internal/automaton"
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/persist"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/word"
)

var queryFlags struct {
	membership  string
	equivalence string
}

var queryCmd = &cobra.Command{
	Use:   "query <path-to-dta-json>",
	Short: "Run a single membership or equivalence query against a DTA",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryFlags.membership, "membership", "",
		`a delay-timed word to execute, as "action@delay,action@delay,..." (e.g. "open@0,close@3.5")`)
	queryCmd.Flags().StringVar(&queryFlags.equivalence, "equivalence", "",
		"path to a second DTA JSON document to check for language equivalence against")
}

func runQuery(cmd *cobra.Command, args []string) error {
	path := args[0]
	m, err := loadModel(path)
	if err != nil {
		return err
	}
	switch {
	case queryFlags.membership != "" && queryFlags.equivalence != "":
		return fmt.Errorf("--membership and --equivalence are mutually exclusive")
	case queryFlags.membership != "":
		return runMembershipQuery(cmd, m)
	case queryFlags.equivalence != "":
		return runEquivalenceQuery(cmd, m)
	default:
		return fmt.Errorf("one of --membership or --equivalence is required")
	}
}

func loadModel(path string) (*automaton.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := persist.Decode(data)
	if err != nil {
		return nil, err
	}
	m, err := persist.Import(doc)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return m, nil
}

func runMembershipQuery(cmd *cobra.Command, m *automaton.Model) error {
	w, err := parseDelayTimedWord(m.Alphabet(), queryFlags.membership)
	if err != nil {
		return err
	}
	rt, err := automaton.NewRuntime(m)
	if err != nil {
		return err
	}
	steps, accepted, err := rt.ExecuteDelayTimed(w)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, s := range steps {
		if s.Accepted {
			fmt.Fprintf(out, "step %d: accepted, took %s -> %s\n", i, s.Taken.Action, s.Taken.Target.Label())
		} else {
			fmt.Fprintf(out, "step %d: rejected (%s)\n", i, s.Reason)
		}
	}
	fmt.Fprintf(out, "accepted: %t\n", accepted)
	return nil
}

func runEquivalenceQuery(cmd *cobra.Command, m *automaton.Model) error {
	other, err := loadModel(queryFlags.equivalence)
	if err != nil {
		return err
	}
	oracle := guard.NewDBMOracle()
	equiv, witness, err := automaton.Equivalent(m, other, oracle)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "equivalent: %t\n", equiv)
	if !equiv {
		fmt.Fprintf(out, "counterexample: %s\n", formatDelayTimedWord(witness))
	}
	return nil
}

// parseDelayTimedWord parses "action@delay,action@delay,..." into a
// DelayTimedWord, resolving each action against alphabet. An empty string
// parses to the empty word.
func parseDelayTimedWord(alphabet *clock.Alphabet, s string) (word.DelayTimedWord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return word.DelayTimedWord{}, nil
	}
	parts := strings.Split(s, ",")
	w := make(word.DelayTimedWord, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		at := strings.LastIndex(part, "@")
		if at < 0 {
			return nil, errs.New(errs.InvalidRational, `step %q is not of the form "action@delay"`, part)
		}
		actionName, delayTok := part[:at], part[at+1:]
		action, ok := alphabet.Lookup(actionName)
		if !ok {
			return nil, errs.New(errs.UnknownAction, "unknown action %q", actionName)
		}
		delay, err := parseRationalToken(delayTok)
		if err != nil {
			return nil, err
		}
		w[i] = word.DelayStep{Action: action, Delay: delay}
	}
	return w, nil
}

func parseRationalToken(tok string) (rational.Rational, error) {
	r, ok := new(big.Rat).SetString(tok)
	if !ok {
		return rational.Rational{}, errs.New(errs.InvalidRational, "malformed delay %q", tok)
	}
	return rational.FromBigRat(r), nil
}

func formatDelayTimedWord(w word.DelayTimedWord) string {
	if len(w) == 0 {
		return "epsilon"
	}
	parts := make([]string, len(w))
	for i, step := range w {
		parts[i] = fmt.Sprintf("%s@%s", step.Action, step.Delay)
	}
	return strings.Join(parts, ",")
}
