// ABOUTME: Similarity engine ranking stored projects against a query vector
// ABOUTME: Cosine similarity via dot product of unit vectors with stable top-K selection
package core

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/harper/budget-simulator/internal/embedding"
	"github.com/harper/budget-simulator/internal/models"
	"github.com/harper/budget-simulator/internal/storage"
)

// DefaultTopK is used when neither the caller nor the engine sets K
const DefaultTopK = 10

// ErrDimensionMismatch is returned when a query does not match the index dimension
var ErrDimensionMismatch = errors.New("query dimension does not match index")

// IndexSource yields the snapshot to search. *storage.VectorStore satisfies it.
type IndexSource interface {
	Load(ctx context.Context) (*storage.Snapshot, error)
}

// SimilarityEngine searches an index for the rows closest to a query
type SimilarityEngine struct {
	index IndexSource
	topK  int
}

// NewSimilarityEngine creates an engine over index returning topK candidates
// by default.
func NewSimilarityEngine(index IndexSource, topK int) *SimilarityEngine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &SimilarityEngine{index: index, topK: topK}
}

// TopK returns the engine's default result bound
func (e *SimilarityEngine) TopK() int {
	return e.topK
}

// Search loads the current snapshot and ranks it against query. The returned
// candidate indices refer to rows of the returned snapshot. k <= 0 uses the
// engine default.
func (e *SimilarityEngine) Search(ctx context.Context, query []float64, k int) ([]models.Candidate, *storage.Snapshot, error) {
	snap, err := e.index.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load index: %w", err)
	}
	if k <= 0 {
		k = e.topK
	}

	candidates, err := Rank(snap.Matrix, query, k)
	if err != nil {
		return nil, nil, err
	}
	return candidates, snap, nil
}

// Rank scores every row of matrix against query and returns the k best,
// highest score first. Rows are assumed unit length; the query is normalised
// here unless it is the zero vector. Equal scores keep row order.
func Rank(matrix [][]float64, query []float64, k int) ([]models.Candidate, error) {
	if len(matrix) == 0 || k <= 0 {
		return []models.Candidate{}, nil
	}
	if dim := len(matrix[0]); len(query) != dim {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", ErrDimensionMismatch, len(query), dim)
	}

	q := embedding.Normalize(query)

	candidates := make([]models.Candidate, len(matrix))
	for i, row := range matrix {
		candidates[i] = models.Candidate{Index: i, Score: embedding.Dot(q, row)}
	}

	slices.SortStableFunc(candidates, func(a, b models.Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}
