// ABOUTME: CLI commands for the analysis log
// ABOUTME: List recent entries, show one, aggregate statistics and prune old entries
package commands

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/harper/budget-simulator/internal/models"
	"github.com/harper/budget-simulator/internal/storage/sqlite"
)

var (
	logsLimit   int
	logsStatus  string
	cleanupDays int
)

// NewLogsCmd creates the logs command group
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect and prune the analysis log",
		Long: `List recent analysis requests, newest first.

Every analyze call, from the CLI, the HTTP API or MCP, is recorded
with its prediction, timing and outcome.

Examples:
  budgetsim logs
  budgetsim logs --status error --limit 10
  budgetsim logs show 42
  budgetsim logs stats
  budgetsim logs cleanup --days 90`,
		RunE: runLogs,
	}

	cmd.Flags().IntVar(&logsLimit, "limit", 20, "Maximum entries to show (1-100)")
	cmd.Flags().StringVar(&logsStatus, "status", "", "Only show entries with this status (success, error)")

	cmd.AddCommand(newLogsShowCmd())
	cmd.AddCommand(newLogsStatsCmd())
	cmd.AddCommand(newLogsCleanupCmd())

	return cmd
}

func runLogs(cmd *cobra.Command, args []string) error {
	if logsLimit < 1 || logsLimit > sqlite.MaxLogLimit {
		return fmt.Errorf("limit must be 1-%d, got %d", sqlite.MaxLogLimit, logsLimit)
	}

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	logs, err := svc.Logs().List(sqlite.LogFilter{Limit: logsLimit, Status: logsStatus})
	if err != nil {
		return fmt.Errorf("listing logs: %w", err)
	}

	if len(logs) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No analysis logs found\n")
		}
		return nil
	}

	return render(cmd.OutOrStdout(), logs, func(out io.Writer) error {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tWHEN\tSTATUS\tPREDICTED\tCASES\tISSUE\n")
		fmt.Fprintf(w, "--\t----\t------\t---------\t-----\t-----\n")
		for _, entry := range logs {
			predicted := "-"
			if entry.PredictedBudget != nil {
				predicted = formatYen(*entry.PredictedBudget)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
				entry.ID,
				humanize.Time(entry.AnalysisDate),
				entry.Status,
				predicted,
				entry.CaseCount,
				truncate(entry.IssueText, 40))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(out, "\nShowing %d log(s)\n", len(logs))
		}
		return nil
	})
}

func newLogsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one analysis log entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid log id %q", args[0])
			}

			svc, err := openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			entry, err := svc.Logs().Get(id)
			if errors.Is(err, sqlite.ErrNotFound) {
				return fmt.Errorf("log %d not found", id)
			}
			if err != nil {
				return fmt.Errorf("getting log: %w", err)
			}

			return render(cmd.OutOrStdout(), entry, func(w io.Writer) error {
				return printLogEntry(w, entry)
			})
		},
	}
}

func printLogEntry(out io.Writer, entry *models.AnalysisLog) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", entry.ID)
	fmt.Fprintf(w, "Date:\t%s (%s)\n", entry.AnalysisDate.Format("2006-01-02 15:04:05"), humanize.Time(entry.AnalysisDate))
	fmt.Fprintf(w, "Status:\t%s\n", entry.Status)
	if entry.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:\t%s\n", entry.ErrorMessage)
	}
	fmt.Fprintf(w, "Issue:\t%s\n", entry.IssueText)
	fmt.Fprintf(w, "Summary:\t%s\n", entry.SummaryText)
	if entry.ProposedBudget != nil {
		fmt.Fprintf(w, "Proposed:\t%s\n", formatYen(float64(*entry.ProposedBudget)))
	}
	if entry.PredictedBudget != nil {
		fmt.Fprintf(w, "Predicted:\t%s\n", formatYen(*entry.PredictedBudget))
	}
	if entry.AverageBudget != nil {
		fmt.Fprintf(w, "Average:\t%s\n", formatYen(*entry.AverageBudget))
	}
	fmt.Fprintf(w, "Cases:\t%d\n", entry.CaseCount)
	fmt.Fprintf(w, "Processing:\t%.3fs\n", entry.ProcessingTime)
	for _, c := range entry.SimilarCases {
		fmt.Fprintf(w, "  %.3f\t%s (%s)\n", c.Similarity, truncate(c.Name, 40), formatYen(float64(c.Budget)))
	}
	return w.Flush()
}

func newLogsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show analysis log statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			stats, err := svc.Logs().Stats()
			if err != nil {
				return fmt.Errorf("computing log stats: %w", err)
			}

			return render(cmd.OutOrStdout(), stats, func(w io.Writer) error {
				return printLogStats(w, stats)
			})
		},
	}
}

func printLogStats(out io.Writer, stats *models.LogStats) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total:\t%d\n", stats.TotalCount)

	statuses := make([]string, 0, len(stats.StatusCounts))
	for s := range stats.StatusCounts {
		statuses = append(statuses, s)
	}
	slices.Sort(statuses)
	for _, s := range statuses {
		fmt.Fprintf(w, "Status %s:\t%d\n", s, stats.StatusCounts[s])
	}

	fmt.Fprintf(w, "Avg processing:\t%.3fs\n", stats.AvgProcessingTime)
	fmt.Fprintf(w, "Predicted avg:\t%s\n", formatYen(stats.BudgetStats.AvgPredicted))
	fmt.Fprintf(w, "Predicted min:\t%s\n", formatYen(stats.BudgetStats.MinPredicted))
	fmt.Fprintf(w, "Predicted max:\t%s\n", formatYen(stats.BudgetStats.MaxPredicted))
	fmt.Fprintf(w, "Distinct proposals:\t%d\n", stats.BudgetStats.UniqueBudgets)
	return w.Flush()
}

func newLogsCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete log entries older than --days and compact the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePositiveInt(cleanupDays, "days"); err != nil {
				return err
			}

			svc, err := openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			deleted, err := svc.Logs().DeleteOlderThan(cleanupDays)
			if err != nil {
				return fmt.Errorf("deleting old logs: %w", err)
			}
			if err := svc.Logs().Vacuum(); err != nil {
				return fmt.Errorf("compacting log database: %w", err)
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s log(s) older than %d day(s)\n",
					humanize.Comma(deleted), cleanupDays)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cleanupDays, "days", 90, "Delete entries older than this many days")

	return cmd
}
