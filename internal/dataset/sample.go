// ABOUTME: Synthetic single-project dataset used when the source cannot be ingested
// ABOUTME: Keeps the service answering queries with an aligned one-row index
package dataset

import (
	"github.com/harper/budget-simulator/internal/embedding"
	"github.com/harper/budget-simulator/internal/models"
)

const sampleSeed = "budget-simulator/sample"

// SampleDataset returns one synthetic project (budget 50,000,000, rating B)
// and a unit-length vector for it.
func SampleDataset(dim, year int) *Result {
	if dim <= 0 {
		dim = embedding.DefaultDimension
	}
	const errorRate = 0.2

	record := models.Project{
		ID:            1,
		ProjectName:   "サンプル事業",
		Ministry:      "サンプル省庁",
		Bureau:        "サンプル局",
		IssueText:     "サンプル事業の課題です",
		SummaryText:   "サンプル事業の概要です",
		Description:   "サンプル事業の説明です",
		Outcomes:      "サンプル事業の成果です",
		InitialBudget: 50_000_000,
		Year:          year,
		Rating:        models.RatingB,
		ScaleCategory: "中規模",
		ErrorRate:     errorRate,
	}

	return &Result{
		Records: []models.Project{record},
		Matrix:  [][]float64{embedding.FallbackVector(embedding.SeedFromText(sampleSeed), dim)},
		Report: Report{
			Fallback:           true,
			FallbackEmbeddings: 1,
		},
	}
}
