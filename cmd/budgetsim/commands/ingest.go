// ABOUTME: CLI command to build the project index from a CSV or XLSX source
// ABOUTME: Prints the ingestion report: kept rows, drops and embedding fallbacks
package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/budget-simulator/internal/dataset"
)

var (
	ingestSource string
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build the project index from a source table",
		Long: `Build the project index from a CSV or XLSX source table.

Rows without a positive budget or with too little text are dropped.
Embedding cells that cannot be parsed get a deterministic fallback
vector. When the source is unreadable or lacks required columns a
one-project sample index is written instead, and the report says so.

The new index replaces the current one atomically.

Examples:
  budgetsim ingest
  budgetsim ingest --source ./final_2024.xlsx
  budgetsim ingest --format json`,
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestSource, "source", "", "Source file (default: BUDGET_SOURCE_PATH)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	report, err := svc.Ingest(cmd.Context(), ingestSource)
	if err != nil {
		return fmt.Errorf("ingesting: %w", err)
	}

	kept := 0
	if snap := svc.Index().Current(); snap != nil {
		kept = snap.Len()
	}

	return render(cmd.OutOrStdout(), report, func(w io.Writer) error {
		return printReport(w, report, kept)
	})
}

func printReport(out io.Writer, r *dataset.Report, kept int) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Source:\t%s\n", r.Source)
	fmt.Fprintf(w, "Source rows:\t%d\n", r.SourceRows)
	fmt.Fprintf(w, "Indexed projects:\t%d\n", kept)
	fmt.Fprintf(w, "Dropped (budget):\t%d\n", r.DroppedBudget)
	fmt.Fprintf(w, "Dropped (text):\t%d\n", r.DroppedText)
	fmt.Fprintf(w, "Parsed embeddings:\t%d\n", r.ParsedEmbeddings)
	fmt.Fprintf(w, "Fallback embeddings:\t%d\n", r.FallbackEmbeddings)
	if r.ZeroNormRows > 0 {
		fmt.Fprintf(w, "Zero-norm rows:\t%d\n", r.ZeroNormRows)
	}
	if r.Fallback {
		fmt.Fprintf(w, "Sample dataset:\tyes (%s)\n", r.FallbackReason)
	}
	return w.Flush()
}
