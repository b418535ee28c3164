package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dta-learner/dta/internal/config"
	"github.com/dta-learner/dta/internal/learner"
	"github.com/dta-learner/dta/internal/persist"
	"github.com/dta-learner/dta/internal/render"
	"github.com/dta-learner/dta/internal/table"
	"github.com/dta-learner/dta/internal/teacher"
)

var learnFlags struct {
	configPath string
}

var learnCmd = &cobra.Command{
	Use:   "learn <path-to-dta-json>",
	Short: "Learn a DTA from scratch against a teacher simulating the DTA at path",
	Args:  cobra.ExactArgs(1),
	RunE:  runLearn,
}

func init() {
	learnCmd.Flags().StringVar(&learnFlags.configPath, "config", "", "learner config YAML (guess budget, kappa overrides, oracle)")
}

func runLearn(cmd *cobra.Command, args []string) error {
	path := args[0]
	out := cmd.OutOrStdout()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := persist.Decode(data)
	if err != nil {
		return err
	}

	cfg := config.DefaultLearnerConfig()
	if learnFlags.configPath != "" {
		cfg, err = config.Load(learnFlags.configPath)
		if err != nil {
			return err
		}
	}

	target, err := persist.ImportWithKappaOverrides(doc, cfg.ClockKappaOverrides)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	oracle := cfg.BuildOracle()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	tchr := teacher.NewSimulationTeacher(target, oracle, log)
	budget := table.NewGuessBudget(cfg.GuessBudget)

	start := time.Now()
	result, err := learner.Learn(target.Clocks(), target.Alphabet(), tchr, oracle, budget, log)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("learn %s: %w", path, err)
	}

	fmt.Fprintln(out, render.Model(result.Hypothesis))
	fmt.Fprintf(out, "membership queries:  %d\n", result.MembershipQueries)
	fmt.Fprintf(out, "equivalence queries: %d\n", result.EquivalenceQueries)
	fmt.Fprintf(out, "tables explored:     %d\n", result.TablesExplored)
	fmt.Fprintf(out, "wall time:           %s\n", elapsed)
	return nil
}
