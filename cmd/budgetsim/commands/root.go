// ABOUTME: Root command and global flags for the budgetsim CLI
// ABOUTME: Wires subcommands and validates --format before any command runs
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

var validFormats = []string{"auto", "json", "yaml", "table"}

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgetsim",
		Short: "Predict policy project budgets from similar past projects",
		Long: `budgetsim - policy budget simulator

Estimates the budget of a new policy project from historical projects
with similar goals. Each historical project carries an embedding of its
issue and summary text; a new proposal is embedded the same way and the
most similar past projects are combined into a similarity-weighted
budget estimate.

Data lives under $XDG_DATA_HOME/budget-simulator unless BUDGET_DATA_DIR
is set. Analysis requests are recorded in an SQLite audit log.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !containsString(validFormats, outputFormat) {
				return fmt.Errorf("invalid --format %q (want one of auto, json, yaml, table)", outputFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors and suppress summaries")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json, yaml, table")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewProjectsCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewInfoCmd())
	cmd.AddCommand(NewLogsCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}
