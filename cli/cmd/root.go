// Package cmd contains CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	format  string
	verbose bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "argus",
	Short: "Argus CLI - In-Process Observability Platform",
	Long: `Argus is an in-process observability platform combining metrics,
distributed traces, log aggregation, and alerting.

Examples:
  # Run the demo workload and inspect the results
  argus demo

  # Same, with JSON output
  argus demo -o json

  # Summaries only
  argus demo --quiet
`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&format, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd prints version info.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("argus version 0.1.0")
	},
}
