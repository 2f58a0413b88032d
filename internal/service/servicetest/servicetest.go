// ABOUTME: Test fixtures building small, fully wired services over a fixture CSV
// ABOUTME: Used by the packages that sit on top of the service layer
package servicetest

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/harper/budget-simulator/internal/config"
	"github.com/harper/budget-simulator/internal/embedding"
	"github.com/harper/budget-simulator/internal/service"
)

// Dimension is the vector length of the fixture index
const Dimension = 4

// Row is one project in the fixture source file
type Row struct {
	ID        int64
	Name      string
	Budget    int64
	ErrorRate float64
	Vector    []float64
}

// DefaultRows scores 1, 0.8 and 0 against Query
var DefaultRows = []Row{
	{ID: 1, Name: "地域交通再編事業", Budget: 100_000_000, ErrorRate: 0.05, Vector: []float64{1, 0, 0, 0}},
	{ID: 2, Name: "観光振興基盤整備事業", Budget: 200_000_000, ErrorRate: 0.2, Vector: []float64{0.8, 0.6, 0, 0}},
	{ID: 3, Name: "防災情報システム事業", Budget: 300_000_000, ErrorRate: 0.6, Vector: []float64{0, 0, 1, 0}},
}

// Query is the vector the fixture provider returns for every text
var Query = []float64{1, 0, 0, 0}

// WriteCSV writes rows as a source file with canonical headers. Each
// embedding cell is padded with zeros so it parses instead of falling back.
func WriteCSV(t testing.TB, path string, rows []Row) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"id", "ministry", "bureau", "summary_text", "initial_budget", "current_budget",
		"project_name", "issue_text", "scale_category", "error_rate", "embedding",
	}
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, r := range rows {
		budget := strconv.FormatInt(r.Budget, 10)
		record := []string{
			strconv.FormatInt(r.ID, 10), "国土交通省", "総合政策局",
			r.Name + "により地域の課題解決を図る",
			budget, budget, r.Name,
			r.Name + "の対象地域では人口減少が進んでいる",
			"中規模", strconv.FormatFloat(r.ErrorRate, 'f', -1, 64),
			embeddingCell(r.Vector),
		}
		if err := w.Write(record); err != nil {
			t.Fatalf("write row %d: %v", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush csv: %v", err)
	}
}

func embeddingCell(v []float64) string {
	n := max(embedding.MinTokens, len(v))
	parts := make([]string, n)
	for i := range parts {
		x := 0.0
		if i < len(v) {
			x = v[i]
		}
		parts[i] = strconv.FormatFloat(x, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Config returns a config rooted in a temp dir whose source file holds rows
func Config(t testing.TB, rows []Row) *config.Config {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "projects.csv")
	WriteCSV(t, source, rows)

	return &config.Config{
		EmbeddingModel:      "text-embedding-3-small",
		Timeout:             time.Second,
		RetryDelay:          time.Millisecond,
		EmbeddingRateLimit:  600,
		VectorDimension:     Dimension,
		TopK:                10,
		SimilarityThreshold: 0.1,
		DataDir:             filepath.Join(dir, "data"),
		SourcePath:          source,
		ReportingYear:       2024,
		Host:                "127.0.0.1",
		Port:                5000,
		CORSOrigins:         []string{"http://localhost:3000"},
		LogLevel:            "error",
		LogFormat:           "text",
	}
}

// New returns a service over DefaultRows whose provider always yields Query
func New(t testing.TB) *service.Service {
	t.Helper()
	return NewWithRows(t, DefaultRows)
}

// NewWithRows is New over a custom fixture
func NewWithRows(t testing.TB, rows []Row) *service.Service {
	t.Helper()
	provider := embedding.ProviderFunc(func(ctx context.Context, text string) ([]float64, error) {
		return slices.Clone(Query), nil
	})

	svc, err := service.New(Config(t, rows), service.Options{Provider: provider})
	if err != nil {
		t.Fatalf("service.New() error = %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}
