// ABOUTME: AnalysisLog records one analyze request for auditing
// ABOUTME: Persisted by the SQLite log store, never by the predictor itself
package models

import "time"

// Log statuses
const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"
)

// AnalysisLog is a single audit entry for an analysis request
type AnalysisLog struct {
	ID              int64         `json:"id" yaml:"id"`
	IssueText       string        `json:"issue_text" yaml:"issue_text"`
	SummaryText     string        `json:"summary_text" yaml:"summary_text"`
	ProposedBudget  *int64        `json:"proposed_budget" yaml:"proposed_budget"`
	PredictedBudget *float64      `json:"predicted_budget" yaml:"predicted_budget"`
	AverageBudget   *float64      `json:"average_budget" yaml:"average_budget"`
	CaseCount       int           `json:"case_count" yaml:"case_count"`
	SimilarCases    []SimilarCase `json:"similar_cases" yaml:"similar_cases"`
	AnalysisDate    time.Time     `json:"analysis_date" yaml:"analysis_date"`
	UserIP          string        `json:"user_ip" yaml:"user_ip"`
	UserAgent       string        `json:"user_agent" yaml:"user_agent"`
	ProcessingTime  float64       `json:"processing_time" yaml:"processing_time"`
	Status          string        `json:"status" yaml:"status"`
	ErrorMessage    string        `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// BudgetStats summarises predicted budgets across successful logs
type BudgetStats struct {
	AvgPredicted  float64 `json:"avg_predicted" yaml:"avg_predicted"`
	MinPredicted  float64 `json:"min_predicted" yaml:"min_predicted"`
	MaxPredicted  float64 `json:"max_predicted" yaml:"max_predicted"`
	UniqueBudgets int     `json:"unique_budgets" yaml:"unique_budgets"`
}

// LogStats aggregates the analysis log table
type LogStats struct {
	TotalCount        int            `json:"total_count" yaml:"total_count"`
	StatusCounts      map[string]int `json:"status_counts" yaml:"status_counts"`
	DailyCounts       map[string]int `json:"daily_counts" yaml:"daily_counts"`
	AvgProcessingTime float64        `json:"avg_processing_time" yaml:"avg_processing_time"`
	BudgetStats       BudgetStats    `json:"budget_stats" yaml:"budget_stats"`
}

// BudgetSummary holds order statistics of project budgets, in yen
type BudgetSummary struct {
	Min    int64 `json:"min" yaml:"min"`
	Max    int64 `json:"max" yaml:"max"`
	Mean   int64 `json:"mean" yaml:"mean"`
	Median int64 `json:"median" yaml:"median"`
}

// ProjectStats summarises the loaded project index
type ProjectStats struct {
	TotalProjects      int            `json:"total_projects" yaml:"total_projects"`
	BudgetStats        BudgetSummary  `json:"budget_stats" yaml:"budget_stats"`
	RatingDistribution map[Rating]int `json:"rating_distribution" yaml:"rating_distribution"`
}
