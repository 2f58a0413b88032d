// ABOUTME: Project represents one historical budget project in the index
// ABOUTME: Defines ratings derived from forecast error and their descriptions
package models

import (
	"errors"
	"math"
)

// Rating is the A-D evaluation grade derived from a project's error rate
type Rating string

const (
	RatingA Rating = "A"
	RatingB Rating = "B"
	RatingC Rating = "C"
	RatingD Rating = "D"
)

var ratingDescriptions = map[Rating]string{
	RatingA: "高評価、目標達成、効果的",
	RatingB: "良好、概ね目標達成、一部改善の余地あり",
	RatingC: "要改善、一部目標未達、改善が必要",
	RatingD: "低評価、目標未達、大幅な改善が必要",
}

// Description returns the human-readable text for a rating
func (r Rating) Description() string {
	if d, ok := ratingDescriptions[r]; ok {
		return d
	}
	return "評価情報なし"
}

// Label renders the rating as "<R>評価: <description>"
func (r Rating) Label() string {
	return string(r) + "評価: " + r.Description()
}

// Valid reports whether r is one of the four known grades
func (r Rating) Valid() bool {
	_, ok := ratingDescriptions[r]
	return ok
}

// RatingFromErrorRate buckets a relative forecast error into a grade.
// A zero or missing error rate is treated as B.
func RatingFromErrorRate(rate float64) Rating {
	switch {
	case math.IsNaN(rate) || rate == 0:
		return RatingB
	case rate < 0.1:
		return RatingA
	case rate < 0.3:
		return RatingB
	case rate < 0.5:
		return RatingC
	default:
		return RatingD
	}
}

// OutcomesForErrorRate returns the narrative outcome text for an error rate bucket
func OutcomesForErrorRate(rate float64) string {
	switch {
	case math.IsNaN(rate) || rate == 0:
		return "予測精度の評価が困難"
	case rate < 0.1:
		return "予測精度が高く、事業計画が適切に策定されている"
	case rate < 0.3:
		return "予測精度は良好で、一部改善の余地がある"
	case rate < 0.5:
		return "予測精度に改善の余地があり、計画の見直しが必要"
	default:
		return "予測精度が低く、大幅な計画の見直しが必要"
	}
}

// Project is a single historical project record. Records are immutable once built.
type Project struct {
	ID            int64   `json:"id" yaml:"id"`
	ProjectName   string  `json:"project_name" yaml:"project_name"`
	Ministry      string  `json:"ministry" yaml:"ministry"`
	Bureau        string  `json:"bureau" yaml:"bureau"`
	IssueText     string  `json:"issue_text" yaml:"issue_text"`
	SummaryText   string  `json:"summary_text" yaml:"summary_text"`
	Description   string  `json:"description" yaml:"description"`
	Outcomes      string  `json:"outcomes" yaml:"outcomes"`
	InitialBudget float64 `json:"initial_budget" yaml:"initial_budget"`
	CurrentBudget float64 `json:"current_budget" yaml:"current_budget"`
	Year          int     `json:"year" yaml:"year"`
	Rating        Rating  `json:"rating" yaml:"rating"`
	ScaleCategory string  `json:"scale_category,omitempty" yaml:"scale_category,omitempty"`
	ErrorRate     float64 `json:"error_rate" yaml:"error_rate"`
}

// Validate checks the invariants a stored project must satisfy
func (p *Project) Validate() error {
	if p.InitialBudget <= 0 {
		return errors.New("initial budget must be positive")
	}
	if !p.Rating.Valid() {
		return errors.New("rating must be one of A, B, C, D")
	}
	return nil
}

// ProjectSummary is the listing view of a project. Issue and summary text are
// only filled in for detail views.
type ProjectSummary struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Year        int    `json:"year" yaml:"year"`
	Budget      int64  `json:"budget" yaml:"budget"`
	Rating      Rating `json:"rating" yaml:"rating"`
	Description string `json:"description" yaml:"description"`
	Outcomes    string `json:"outcomes" yaml:"outcomes"`
	IssueText   string `json:"issue_text,omitempty" yaml:"issue_text,omitempty"`
	SummaryText string `json:"summary_text,omitempty" yaml:"summary_text,omitempty"`
}

// Summary converts p to its listing view; detail adds the issue and summary text
func (p *Project) Summary(detail bool) ProjectSummary {
	s := ProjectSummary{
		ID:          p.ID,
		Name:        p.ProjectName,
		Year:        p.Year,
		Budget:      int64(p.InitialBudget),
		Rating:      p.Rating,
		Description: p.Description,
		Outcomes:    p.Outcomes,
	}
	if detail {
		s.IssueText = p.IssueText
		s.SummaryText = p.SummaryText
	}
	return s
}
