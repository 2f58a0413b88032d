// ABOUTME: CLI commands to list indexed projects and summarise the index
// ABOUTME: projects shows a table of projects; stats shows budget and rating statistics
package commands

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/budget-simulator/internal/models"
)

var (
	projectsLimit int
)

// NewProjectsCmd creates the projects command
func NewProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List indexed projects",
		Long: `List historical projects in the index, in source order.

The index is built from the configured source on first use if it does
not exist yet.

Examples:
  budgetsim projects
  budgetsim projects --limit 50
  budgetsim projects --format json`,
		RunE: runProjects,
	}

	cmd.Flags().IntVar(&projectsLimit, "limit", 20, "Maximum projects to show")

	return cmd
}

func runProjects(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(projectsLimit, "limit"); err != nil {
		return err
	}

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	projects, total, err := svc.Projects(cmd.Context(), projectsLimit)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}

	if len(projects) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No projects indexed\n")
		}
		return nil
	}

	payload := map[string]interface{}{"projects": projects, "total_count": total}
	return render(cmd.OutOrStdout(), payload, func(out io.Writer) error {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tYEAR\tBUDGET\tRATING\tPROJECT\n")
		fmt.Fprintf(w, "--\t----\t------\t------\t-------\n")
		for _, p := range projects {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
				p.ID, p.Year, formatYen(float64(p.Budget)), p.Rating, truncate(p.Name, 40))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(out, "\nShowing %d of %d project(s)\n", len(projects), total)
		}
		return nil
	})
}

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show budget and rating statistics of the index",
		Long: `Show the number of indexed projects, budget min/max/mean/median and
the distribution of A-D ratings.`,
		RunE: runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("computing stats: %w", err)
	}

	return render(cmd.OutOrStdout(), stats, func(w io.Writer) error {
		return printProjectStats(w, stats)
	})
}

func printProjectStats(out io.Writer, stats models.ProjectStats) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Projects:\t%d\n", stats.TotalProjects)
	fmt.Fprintf(w, "Budget min:\t%s\n", formatYen(float64(stats.BudgetStats.Min)))
	fmt.Fprintf(w, "Budget max:\t%s\n", formatYen(float64(stats.BudgetStats.Max)))
	fmt.Fprintf(w, "Budget mean:\t%s\n", formatYen(float64(stats.BudgetStats.Mean)))
	fmt.Fprintf(w, "Budget median:\t%s\n", formatYen(float64(stats.BudgetStats.Median)))

	ratings := make([]models.Rating, 0, len(stats.RatingDistribution))
	for r := range stats.RatingDistribution {
		ratings = append(ratings, r)
	}
	slices.Sort(ratings)
	for _, r := range ratings {
		fmt.Fprintf(w, "Rating %s:\t%d\n", r, stats.RatingDistribution[r])
	}
	return w.Flush()
}
