// ABOUTME: CLI command to predict a budget for a new project description
// ABOUTME: Shows the weighted prediction, the average and the similar cases used
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/budget-simulator/internal/models"
	"github.com/harper/budget-simulator/internal/service"
)

var (
	analyzeProposed int64
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <issue> <summary>",
		Short: "Predict a budget from similar past projects",
		Long: `Predict the budget of a new project.

<issue> describes the current situation and problem, <summary> how the
project will address it. The two texts are embedded together and
compared with every indexed project. Projects above the similarity
threshold contribute to a similarity-weighted budget estimate.

The request is recorded in the analysis log.

Examples:
  budgetsim analyze "地方の公共交通が不足" "デマンド交通の導入支援"
  budgetsim analyze --proposed 120000000 "..." "..."
  budgetsim analyze --format yaml "..." "..."`,
		Args: cobra.ExactArgs(2),
		RunE: runAnalyze,
	}

	cmd.Flags().Int64Var(&analyzeProposed, "proposed", 0, "Budget you have in mind, in yen (recorded in the log)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	issue := strings.TrimSpace(args[0])
	summary := strings.TrimSpace(args[1])
	if issue == "" || summary == "" {
		return errors.New("issue and summary text must not be empty")
	}

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	req := service.Request{IssueText: issue, SummaryText: summary, UserAgent: "budgetsim-cli"}
	if analyzeProposed > 0 {
		proposed := analyzeProposed
		req.ProposedBudget = &proposed
	}

	pred := svc.Analyze(cmd.Context(), req)
	if pred.Error {
		return errors.New(pred.Message)
	}

	return render(cmd.OutOrStdout(), pred, func(w io.Writer) error {
		return printPrediction(w, pred)
	})
}

func printPrediction(out io.Writer, pred models.Prediction) error {
	if pred.CaseCount == 0 {
		if !quiet {
			fmt.Fprintln(out, pred.Message)
		}
		return nil
	}

	fmt.Fprintf(out, "Predicted budget: %s\n", formatYen(pred.PredictedBudget))
	fmt.Fprintf(out, "Average budget:   %s\n", formatYen(pred.AverageBudget))
	fmt.Fprintf(out, "Similar cases:    %d\n\n", pred.CaseCount)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SIMILARITY\tWEIGHT\tID\tBUDGET\tRATING\tPROJECT\n")
	fmt.Fprintf(w, "----------\t------\t--\t------\t------\t-------\n")
	for _, c := range pred.SimilarCases {
		fmt.Fprintf(w, "%.3f\t%.3f\t%d\t%s\t%s\t%s\n",
			c.Similarity,
			c.Weight,
			c.ID,
			formatYen(float64(c.Budget)),
			c.Rating,
			truncate(c.Name, 30))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(out, "\n%s\n", pred.Message)
	}
	return nil
}
