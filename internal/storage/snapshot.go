// ABOUTME: Immutable in-memory view of one index version
// ABOUTME: Aligned records and matrix plus id lookup and budget statistics
package storage

import (
	"fmt"
	"sort"

	"github.com/harper/budget-simulator/internal/models"
)

// Snapshot is a loaded index. It is never mutated after construction, so any
// number of goroutines may read it without locking.
type Snapshot struct {
	Version string
	Records []models.Project
	Matrix  [][]float64

	byID map[int64]int
}

// NewSnapshot builds a snapshot from an aligned pair, copying neither slice.
// It fails with ErrMisaligned when the pair does not line up.
func NewSnapshot(version string, records []models.Project, matrix [][]float64) (*Snapshot, error) {
	if _, err := validatePair(records, matrix); err != nil {
		return nil, err
	}
	return newSnapshot(version, records, matrix), nil
}

func newSnapshot(version string, records []models.Project, matrix [][]float64) *Snapshot {
	byID := make(map[int64]int, len(records))
	for i, r := range records {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = i
		}
	}
	return &Snapshot{Version: version, Records: records, Matrix: matrix, byID: byID}
}

// Len returns the number of projects in the snapshot
func (s *Snapshot) Len() int {
	return len(s.Records)
}

// Dimension returns the vector length, or 0 for an empty index
func (s *Snapshot) Dimension() int {
	if len(s.Matrix) == 0 {
		return 0
	}
	return len(s.Matrix[0])
}

// Project returns the record at row i
func (s *Snapshot) Project(i int) (models.Project, error) {
	if i < 0 || i >= len(s.Records) {
		return models.Project{}, fmt.Errorf("row %d out of range [0,%d): %w", i, len(s.Records), ErrNotFound)
	}
	return s.Records[i], nil
}

// ProjectByID returns the first record with the given source id
func (s *Snapshot) ProjectByID(id int64) (models.Project, error) {
	i, ok := s.byID[id]
	if !ok {
		return models.Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return s.Records[i], nil
}

// Stats computes budget order statistics and the rating distribution
func (s *Snapshot) Stats() models.ProjectStats {
	stats := models.ProjectStats{
		TotalProjects:      len(s.Records),
		RatingDistribution: make(map[models.Rating]int),
	}
	if len(s.Records) == 0 {
		return stats
	}

	budgets := make([]float64, len(s.Records))
	var sum float64
	for i, r := range s.Records {
		budgets[i] = r.InitialBudget
		sum += r.InitialBudget
		stats.RatingDistribution[r.Rating]++
	}
	sort.Float64s(budgets)

	n := len(budgets)
	median := budgets[n/2]
	if n%2 == 0 {
		median = (budgets[n/2-1] + budgets[n/2]) / 2
	}

	stats.BudgetStats = models.BudgetSummary{
		Min:    int64(budgets[0]),
		Max:    int64(budgets[n-1]),
		Mean:   int64(sum / float64(n)),
		Median: int64(median),
	}
	return stats
}
