package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dta-learner/dta/internal/persist"
	"github.com/dta-learner/dta/internal/render"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <path-to-dta-json>",
	Short: "Pretty-print a DTA's locations, transitions, and guards",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := persist.Decode(data)
	if err != nil {
		return err
	}
	m, err := persist.Import(doc)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Model(m))
	return nil
}
