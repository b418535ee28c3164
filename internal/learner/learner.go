// Package learner implements the best-first search over observation tables
// that drives the active-learning loop: pop the lowest-guess-count
// candidate, repair it toward closed/consistent/evidence-closed, build a
// hypothesis, and integrate whatever counter-example the teacher returns
// (spec.md §4.K).
package learner

import (
	"container/heap"
	"log/slog"

	"github.com/dta-learner/dta/internal/automaton"
	"github.com/dta-learner/dta/internal/clock"
	"github.com/dta-learner/dta/internal/errs"
	"github.com/dta-learner/dta/internal/guard"
	"github.com/dta-learner/dta/internal/rational"
	"github.com/dta-learner/dta/internal/table"
	"github.com/dta-learner/dta/internal/teacher"
	"github.com/dta-learner/dta/internal/word"
)

// tableQueue is a container/heap min-heap of candidate tables ordered by
// guess count, the priority queue spec.md §4.K's control flow pulls from.
type tableQueue []*table.Table

func (q tableQueue) Len() int            { return len(q) }
func (q tableQueue) Less(i, j int) bool  { return q[i].GuessCount() < q[j].GuessCount() }
func (q tableQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *tableQueue) Push(x any)         { *q = append(*q, x.(*table.Table)) }
func (q *tableQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// queryCounter is implemented by teachers that track how many membership
// and equivalence queries they have answered (teacher.SimulationTeacher
// does); Learn reports these in its Result when available.
type queryCounter interface {
	MembershipQueries() int
	EquivalenceQueries() int
}

// Result is a completed learner run: the converged hypothesis plus the
// query and exploration counts the CLI's `learn` subcommand reports.
type Result struct {
	Hypothesis         *automaton.Model
	TablesExplored     int
	MembershipQueries  int
	EquivalenceQueries int
}

// Learn runs the loop of spec.md §4.K to convergence against t, deciding
// guards via oracle and bounding speculative reset guesses via budget.
// Table-repair-layer failures (a guess budget exhaustion, a guess
// infeasibility, an inconsistent-timing conversion) are local to the
// candidate that hit them and prune that branch; the queue continues with
// whatever else remains (spec.md §7). An error from the teacher itself is
// fatal and is propagated verbatim. Exhausting the whole queue without ever
// returning a prepared, teacher-confirmed hypothesis is reported as
// errs.Exhausted.
func Learn(clocks clock.Set, alphabet *clock.Alphabet, t teacher.Teacher, oracle guard.Oracle, budget *table.GuessBudget, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.Default()
	}
	mq := table.MembershipQuery(t.Membership)

	seeds, err := table.Seed(clocks, alphabet, mq, budget)
	if err != nil {
		return nil, err
	}

	q := make(tableQueue, 0, len(seeds))
	for _, s := range seeds {
		q = append(q, s)
	}
	heap.Init(&q)

	explored := 0
	for {
		if q.Len() == 0 {
			return nil, errs.New(errs.Exhausted, "learner exhausted its candidate queue without ever deriving a consistent hypothesis")
		}
		cur := heap.Pop(&q).(*table.Table)
		explored++

		if !cur.Prepared() {
			branches, err := repair(cur, mq, budget)
			if err != nil {
				log.Debug("pruning table branch during repair", "guesses", cur.GuessCount(), "err", err)
				continue
			}
			for _, b := range branches {
				heap.Push(&q, b)
			}
			continue
		}

		hyp, err := table.Hypothesize(cur)
		if err != nil {
			log.Debug("pruning table: hypothesis construction failed", "guesses", cur.GuessCount(), "err", err)
			continue
		}

		equivalent, cex, err := t.Equivalence(hyp)
		if err != nil {
			return nil, err
		}
		if equivalent {
			result := &Result{Hypothesis: hyp, TablesExplored: explored}
			if qc, ok := t.(queryCounter); ok {
				result.MembershipQueries = qc.MembershipQueries()
				result.EquivalenceQueries = qc.EquivalenceQueries()
			}
			return result, nil
		}

		cexActions, cexDelays := splitDelayWord(cex)
		branches, err := cur.ProcessCounterexample(cexActions, cexDelays, mq, budget)
		if err != nil {
			log.Debug("pruning table: counter-example integration failed", "guesses", cur.GuessCount(), "err", err)
			continue
		}
		for _, b := range branches {
			heap.Push(&q, b)
		}
	}
}

// repair returns the guessClosing products if cur is unclosed, else the
// guessConsistency products (cur is assumed not yet Prepared).
func repair(cur *table.Table, mq table.MembershipQuery, budget *table.GuessBudget) ([]*table.Table, error) {
	if !cur.Closed() {
		return cur.GuessClosing(mq, budget)
	}
	return cur.GuessConsistency(mq, budget)
}

func splitDelayWord(w word.DelayTimedWord) ([]clock.Action, []rational.Rational) {
	actions := make([]clock.Action, len(w))
	delays := make([]rational.Rational, len(w))
	for i, step := range w {
		actions[i] = step.Action
		delays[i] = step.Delay
	}
	return actions, delays
}
