// Package teacher defines the learner's external collaborator (spec.md §6)
// and a reference implementation that answers both queries against a
// concrete DTA instead of a live system under test.
package teacher

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/dta-learner/dta/internal/automaton"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/word"
)

// Teacher is the learner's collaborator: a total, deterministic membership
// oracle and an equivalence oracle returning a counter-example witness when
// the hypothesis disagrees with the target (spec.md §6).
type Teacher interface {
	Membership(w word.DelayTimedWord) (bool, error)
	// Equivalence reports whether hypothesis matches the target language. If
	// not, it also returns a witness word in the symmetric difference.
	Equivalence(hypothesis *automaton.Model) (equivalent bool, counterexample word.DelayTimedWord, err error)
}

// SimulationTeacher answers both queries by direct execution against a
// concrete target DTA and the product/complement/witness-search machinery
// of internal/automaton, rather than against a live system under test
// (spec.md §6's teacher interface is specified as an external collaborator;
// this is the runnable stand-in that makes the CLI's `learn` subcommand a
// real end-to-end command).
type SimulationTeacher struct {
	target    *automaton.Model
	oracle    guard.Oracle
	sessionID uuid.UUID
	log       *slog.Logger

	membershipQueries int
	equivalenceQueries int
}

// NewSimulationTeacher wraps target, deciding guards via oracle.
func NewSimulationTeacher(target *automaton.Model, oracle guard.Oracle, log *slog.Logger) *SimulationTeacher {
	if log == nil {
		log = slog.Default()
	}
	return &SimulationTeacher{
		target:    target,
		oracle:    oracle,
		sessionID: uuid.New(),
		log:       log,
	}
}

// SessionID returns the run-correlation ID attached to every log line this
// teacher emits, so membership/equivalence query logs from the same learner
// run can be grepped out of a shared log stream.
func (s *SimulationTeacher) SessionID() uuid.UUID { return s.sessionID }

// MembershipQueries returns the number of membership queries answered so far.
func (s *SimulationTeacher) MembershipQueries() int { return s.membershipQueries }

// EquivalenceQueries returns the number of equivalence queries answered so far.
func (s *SimulationTeacher) EquivalenceQueries() int { return s.equivalenceQueries }

// Membership plays w against the target from its initial state and reports
// acceptance.
func (s *SimulationTeacher) Membership(w word.DelayTimedWord) (bool, error) {
	s.membershipQueries++
	rt, err := automaton.NewRuntime(s.target)
	if err != nil {
		return false, err
	}
	_, accepted, err := rt.ExecuteDelayTimed(w)
	s.log.Debug("membership query",
		"session", s.sessionID, "query_num", s.membershipQueries, "accepted", accepted)
	if err != nil {
		return false, err
	}
	return accepted, nil
}

// Equivalence checks hypothesis against the target by constructing
// L(target)∩L(¬hypothesis) and L(hypothesis)∩L(¬target) and searching both
// for an accepting witness (internal/automaton.Equivalent, spec.md §4.H).
func (s *SimulationTeacher) Equivalence(hypothesis *automaton.Model) (bool, word.DelayTimedWord, error) {
	s.equivalenceQueries++
	equivalent, witness, err := automaton.Equivalent(s.target, hypothesis, s.oracle)
	s.log.Debug("equivalence query",
		"session", s.sessionID, "query_num", s.equivalenceQueries, "equivalent", equivalent)
	if err != nil {
		return false, nil, err
	}
	if equivalent {
		return true, nil, nil
	}
	return false, witness, nil
}
