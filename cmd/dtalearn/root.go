package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dtalearn",
	Short: "Learn a deterministic timed automaton from membership and equivalence queries",
	Long: "dtalearn loads a deterministic timed automaton from a JSON document, and " +
		"either learns it back from scratch via an active-learning teacher (learn), " +
		"pretty-prints it (inspect), or runs a single query against it (query).",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(queryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
