// ABOUTME: Shared fixtures for core tests
// ABOUTME: Fixed index sources and snapshot builders for engine and predictor tests
package core

import (
	"context"
	"math"
	"testing"

	"github.com/harper/budget-simulator/internal/models"
	"github.com/harper/budget-simulator/internal/storage"
)

// fixedIndex serves one snapshot, or an error
type fixedIndex struct {
	snap *storage.Snapshot
	err  error
}

func (f fixedIndex) Load(context.Context) (*storage.Snapshot, error) {
	return f.snap, f.err
}

// scoredSnapshot builds 2-D unit rows whose cosine with (1, 0) is exactly the
// given score.
func scoredSnapshot(t *testing.T, budgets, scores []float64) *storage.Snapshot {
	t.Helper()
	records := make([]models.Project, len(budgets))
	matrix := make([][]float64, len(budgets))
	for i := range budgets {
		records[i] = models.Project{
			ID:            int64(i + 1),
			ProjectName:   "事業",
			InitialBudget: budgets[i],
			Year:          2024,
			Rating:        models.RatingA,
			Outcomes:      models.OutcomesForErrorRate(0.05),
			Ministry:      "総務省",
		}
		s := scores[i]
		matrix[i] = []float64{s, math.Sqrt(1 - s*s)}
	}
	snap, err := storage.NewSnapshot("index-test", records, matrix)
	if err != nil {
		t.Fatalf("NewSnapshot() error: %v", err)
	}
	return snap
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
