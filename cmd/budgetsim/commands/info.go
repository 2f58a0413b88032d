// ABOUTME: Info command showing where data lives and how searches are tuned
// ABOUTME: Optionally loads the index first so project counts are filled in
package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/budget-simulator/internal/service"
)

var (
	infoLoad bool
)

// NewInfoCmd creates the info command
func NewInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show data locations, search settings and index status",
		Long: `Show the data directory, index directory, source file, top-K and
similarity threshold in effect.

With --load the index is loaded (or rebuilt from the source) first, so the
project count and dimension are reported too.

Examples:
  budgetsim info
  budgetsim info --load --format json`,
		RunE: runInfo,
	}

	cmd.Flags().BoolVar(&infoLoad, "load", false, "Load the index before reporting")

	return cmd
}

func runInfo(cmd *cobra.Command, args []string) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if infoLoad {
		if _, err := svc.Snapshot(cmd.Context()); err != nil {
			return fmt.Errorf("loading index: %w", err)
		}
	}

	info := svc.Info()
	return render(cmd.OutOrStdout(), info, func(w io.Writer) error {
		return printInfo(w, info)
	})
}

func printInfo(out io.Writer, info service.Info) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Data dir:\t%s\n", info.DataDir)
	fmt.Fprintf(w, "Index dir:\t%s\n", info.IndexDir)
	fmt.Fprintf(w, "Source:\t%s\n", info.SourcePath)
	fmt.Fprintf(w, "Top-K:\t%d\n", info.TopK)
	fmt.Fprintf(w, "Threshold:\t%.3f\n", info.Threshold)
	if info.Loaded {
		fmt.Fprintf(w, "Index version:\t%s\n", info.Version)
		fmt.Fprintf(w, "Projects:\t%d\n", info.Projects)
		fmt.Fprintf(w, "Dimension:\t%d\n", info.Dimension)
	} else {
		fmt.Fprintf(w, "Index:\tnot loaded\n")
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if info.LastBuild != nil {
		fmt.Fprintf(out, "\nRebuilt on load:\n")
		return printReport(out, info.LastBuild, info.Projects)
	}
	return nil
}
