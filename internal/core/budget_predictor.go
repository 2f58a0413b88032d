// ABOUTME: Budget predictor turning similar historical projects into a weighted estimate
// ABOUTME: Threshold filtering, similarity weights, and error conversion at the boundary
package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/budget-simulator/internal/embedding"
	"github.com/harper/budget-simulator/internal/logging"
	"github.com/harper/budget-simulator/internal/models"
)

// DefaultSimilarityThreshold is the minimum score a candidate needs to count
const DefaultSimilarityThreshold = 0.1

// ErrNoProvider is returned by Analyze when no embedding provider is set
var ErrNoProvider = errors.New("no embedding provider configured")

// BudgetPredictor estimates a budget from the most similar historical projects
type BudgetPredictor struct {
	engine    *SimilarityEngine
	provider  embedding.Provider
	threshold float64
	logger    *log.Logger
}

// NewBudgetPredictor creates a predictor. provider is only needed for Analyze.
func NewBudgetPredictor(engine *SimilarityEngine, provider embedding.Provider, threshold float64, logger *log.Logger) *BudgetPredictor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &BudgetPredictor{
		engine:    engine,
		provider:  provider,
		threshold: threshold,
		logger:    logger,
	}
}

// Threshold returns the minimum similarity a case needs to be used
func (p *BudgetPredictor) Threshold() float64 {
	return p.threshold
}

// Analyze embeds "issue summary" and predicts from the resulting vector.
// Failures, including provider errors after retries, come back as an error
// Prediction rather than a Go error.
func (p *BudgetPredictor) Analyze(ctx context.Context, issueText, summaryText string) (pred models.Prediction) {
	defer p.recoverInto(&pred)

	if p.provider == nil {
		return models.ErrorPrediction(ErrNoProvider)
	}

	query, err := p.provider.Embed(ctx, issueText+" "+summaryText)
	if err != nil {
		p.logger.Error("query embedding failed", "err", err)
		return models.ErrorPrediction(fmt.Errorf("embedding failed: %w", err))
	}
	return p.Predict(ctx, query)
}

// Predict runs search, threshold filtering and weighting for a query vector.
// It never panics and never returns a partial result.
func (p *BudgetPredictor) Predict(ctx context.Context, query []float64) (pred models.Prediction) {
	defer p.recoverInto(&pred)

	result, err := p.predict(ctx, query)
	if err != nil {
		p.logger.Error("prediction failed", "err", err)
		return models.ErrorPrediction(err)
	}
	return result
}

func (p *BudgetPredictor) predict(ctx context.Context, query []float64) (models.Prediction, error) {
	candidates, snap, err := p.engine.Search(ctx, query, 0)
	if err != nil {
		return models.Prediction{}, err
	}

	// search order is descending, so the survivors stay in that order
	kept := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= p.threshold {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		p.logger.Debug("no candidate passed threshold", "threshold", p.threshold, "searched", len(candidates))
		return models.EmptyPrediction(), nil
	}

	weights := similarityWeights(kept)

	var predicted, total float64
	cases := make([]models.SimilarCase, 0, len(kept))
	for i, c := range kept {
		project, err := snap.Project(c.Index)
		if err != nil {
			return models.Prediction{}, err
		}
		predicted += project.InitialBudget * weights[i]
		total += project.InitialBudget
		cases = append(cases, similarCase(project, c.Score, weights[i]))
	}

	if math.IsNaN(predicted) || math.IsInf(predicted, 0) {
		return models.Prediction{}, fmt.Errorf("predicted budget is not finite")
	}

	p.logger.Debug("prediction complete", "cases", len(cases), "predicted", predicted)

	return models.Prediction{
		PredictedBudget: predicted,
		AverageBudget:   total / float64(len(kept)),
		CaseCount:       len(cases),
		SimilarCases:    cases,
		Message:         models.MessageAnalysisComplete,
	}, nil
}

// similarityWeights divides each score by the sum of scores. If the sum is
// not a positive finite number (possible only with a non-positive threshold)
// every candidate gets the same weight.
func similarityWeights(cands []models.Candidate) []float64 {
	var sum float64
	for _, c := range cands {
		sum += c.Score
	}

	weights := make([]float64, len(cands))
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		for i := range weights {
			weights[i] = 1 / float64(len(cands))
		}
		return weights
	}
	for i, c := range cands {
		weights[i] = c.Score / sum
	}
	return weights
}

func similarCase(p models.Project, score, weight float64) models.SimilarCase {
	return models.SimilarCase{
		ID:            p.ID,
		Name:          p.ProjectName,
		Budget:        int64(p.InitialBudget),
		Rating:        p.Rating,
		RatingText:    p.Rating.Label(),
		Details:       p.Outcomes,
		Similarity:    score,
		Weight:        weight,
		Year:          p.Year,
		Ministry:      p.Ministry,
		Bureau:        p.Bureau,
		ScaleCategory: p.ScaleCategory,
	}
}

func (p *BudgetPredictor) recoverInto(pred *models.Prediction) {
	if r := recover(); r != nil {
		p.logger.Error("prediction panicked", "panic", r, "stack", strings.TrimSpace(string(debug.Stack())))
		*pred = models.ErrorPrediction(fmt.Errorf("internal error: %v", r))
	}
}
