// ABOUTME: Analysis log storage operations for SQLite
// ABOUTME: Save, list, fetch, aggregate and prune audit entries for analyze requests
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harper/budget-simulator/internal/models"
)

const (
	dateTimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"

	// DefaultLogLimit is used when a list request asks for no or too many rows
	DefaultLogLimit = 50
	// MaxLogLimit bounds a single page of logs
	MaxLogLimit = 100
	// dailyWindowDays is how far back Stats reports per-day counts
	dailyWindowDays = 30
)

// ErrNotFound is returned when a log entry does not exist
var ErrNotFound = errors.New("analysis log not found")

// LogFilter narrows a List query. Dates are inclusive "YYYY-MM-DD" strings.
type LogFilter struct {
	Limit    int
	Offset   int
	Status   string
	DateFrom string
	DateTo   string
}

// LogStore handles analysis log persistence
type LogStore struct {
	db  *DB
	now func() time.Time
}

// NewLogStore creates a new LogStore
func NewLogStore(db *DB) *LogStore {
	return &LogStore{db: db, now: time.Now}
}

// Save inserts a log entry and returns its id. A zero AnalysisDate is stamped
// with the current time; an empty Status defaults to success.
func (s *LogStore) Save(entry *models.AnalysisLog) (int64, error) {
	cases := entry.SimilarCases
	if cases == nil {
		cases = []models.SimilarCase{}
	}
	casesJSON, err := json.Marshal(cases)
	if err != nil {
		return 0, fmt.Errorf("failed to encode similar cases: %w", err)
	}

	date := entry.AnalysisDate
	if date.IsZero() {
		date = s.now()
	}
	status := entry.Status
	if status == "" {
		status = models.LogStatusSuccess
	}

	res, err := s.db.Exec(`
		INSERT INTO analysis_logs (
			issue_text, summary_text, proposed_budget, predicted_budget,
			average_budget, case_count, similar_cases, analysis_date,
			user_ip, user_agent, processing_time, status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.IssueText, entry.SummaryText, nullInt64(entry.ProposedBudget),
		nullFloat64(entry.PredictedBudget), nullFloat64(entry.AverageBudget),
		entry.CaseCount, string(casesJSON), date.UTC().Format(dateTimeLayout),
		nullString(entry.UserIP), nullString(entry.UserAgent), entry.ProcessingTime,
		status, nullString(entry.ErrorMessage))
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read log id: %w", err)
	}
	return id, nil
}

// List returns log entries newest first
func (s *LogStore) List(filter LogFilter) ([]models.AnalysisLog, error) {
	limit := filter.Limit
	if limit < 1 || limit > MaxLogLimit {
		limit = DefaultLogLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.DateFrom != "" {
		where = append(where, "DATE(analysis_date) >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		where = append(where, "DATE(analysis_date) <= ?")
		args = append(args, filter.DateTo)
	}

	query := "SELECT " + logColumns + " FROM analysis_logs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY analysis_date DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis logs: %w", err)
	}
	defer rows.Close()

	logs := []models.AnalysisLog{}
	for rows.Next() {
		entry, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *entry)
	}
	return logs, rows.Err()
}

// Get returns one log entry or ErrNotFound
func (s *LogStore) Get(id int64) (*models.AnalysisLog, error) {
	row := s.db.QueryRow("SELECT "+logColumns+" FROM analysis_logs WHERE id = ?", id)
	entry, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("log %d: %w", id, ErrNotFound)
	}
	return entry, err
}

// Stats aggregates counts, processing time and predicted budgets
func (s *LogStore) Stats() (*models.LogStats, error) {
	stats := &models.LogStats{
		StatusCounts: make(map[string]int),
		DailyCounts:  make(map[string]int),
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM analysis_logs`).Scan(&stats.TotalCount); err != nil {
		return nil, fmt.Errorf("failed to count logs: %w", err)
	}

	if err := s.countInto(stats.StatusCounts, `
		SELECT COALESCE(status, ''), COUNT(*) FROM analysis_logs GROUP BY status
	`); err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	since := s.now().UTC().AddDate(0, 0, -dailyWindowDays).Format(dateLayout)
	if err := s.countInto(stats.DailyCounts, `
		SELECT DATE(analysis_date), COUNT(*) FROM analysis_logs
		WHERE analysis_date >= ?
		GROUP BY DATE(analysis_date)
	`, since); err != nil {
		return nil, fmt.Errorf("failed to count by day: %w", err)
	}

	var avgTime sql.NullFloat64
	if err := s.db.QueryRow(`
		SELECT AVG(processing_time) FROM analysis_logs
		WHERE status = 'success' AND processing_time IS NOT NULL
	`).Scan(&avgTime); err != nil {
		return nil, fmt.Errorf("failed to average processing time: %w", err)
	}
	stats.AvgProcessingTime = math.Round(avgTime.Float64*1000) / 1000

	var avg, minP, maxP sql.NullFloat64
	if err := s.db.QueryRow(`
		SELECT AVG(predicted_budget), MIN(predicted_budget), MAX(predicted_budget),
			COUNT(DISTINCT proposed_budget)
		FROM analysis_logs
		WHERE status = 'success' AND predicted_budget IS NOT NULL
	`).Scan(&avg, &minP, &maxP, &stats.BudgetStats.UniqueBudgets); err != nil {
		return nil, fmt.Errorf("failed to aggregate budgets: %w", err)
	}
	stats.BudgetStats.AvgPredicted = avg.Float64
	stats.BudgetStats.MinPredicted = minP.Float64
	stats.BudgetStats.MaxPredicted = maxP.Float64

	return stats, nil
}

// DeleteOlderThan removes entries dated before the start of the day `days`
// days ago and returns how many were deleted.
func (s *LogStore) DeleteOlderThan(days int) (int64, error) {
	if days < 1 {
		return 0, fmt.Errorf("days must be at least 1, got %d", days)
	}
	cutoff := s.now().UTC().AddDate(0, 0, -days).Format(dateLayout)

	res, err := s.db.Exec(`DELETE FROM analysis_logs WHERE analysis_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old logs: %w", err)
	}
	return res.RowsAffected()
}

// Vacuum compacts the database file and refreshes planner statistics
func (s *LogStore) Vacuum() error {
	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	if _, err := s.db.Exec(`ANALYZE`); err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}
	return nil
}

const logColumns = `id, issue_text, summary_text, proposed_budget, predicted_budget,
	average_budget, case_count, similar_cases, analysis_date, user_ip, user_agent,
	processing_time, status, error_message`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLog(row rowScanner) (*models.AnalysisLog, error) {
	var (
		entry     models.AnalysisLog
		proposed  sql.NullInt64
		predicted sql.NullFloat64
		average   sql.NullFloat64
		caseCount sql.NullInt64
		cases     sql.NullString
		date      string
		userIP    sql.NullString
		userAgent sql.NullString
		procTime  sql.NullFloat64
		status    sql.NullString
		errMsg    sql.NullString
	)

	if err := row.Scan(&entry.ID, &entry.IssueText, &entry.SummaryText, &proposed,
		&predicted, &average, &caseCount, &cases, &date, &userIP, &userAgent,
		&procTime, &status, &errMsg); err != nil {
		return nil, err
	}

	if proposed.Valid {
		entry.ProposedBudget = &proposed.Int64
	}
	if predicted.Valid {
		entry.PredictedBudget = &predicted.Float64
	}
	if average.Valid {
		entry.AverageBudget = &average.Float64
	}
	entry.CaseCount = int(caseCount.Int64)
	entry.UserIP = userIP.String
	entry.UserAgent = userAgent.String
	entry.ProcessingTime = procTime.Float64
	entry.Status = status.String
	entry.ErrorMessage = errMsg.String

	// entries with unreadable case JSON still list, just without cases
	entry.SimilarCases = []models.SimilarCase{}
	if cases.Valid && cases.String != "" {
		var decoded []models.SimilarCase
		if err := json.Unmarshal([]byte(cases.String), &decoded); err == nil && decoded != nil {
			entry.SimilarCases = decoded
		}
	}

	if t, err := time.Parse(dateTimeLayout, date); err == nil {
		entry.AnalysisDate = t
	}

	return &entry, nil
}

func (s *LogStore) countInto(dst map[string]int, query string, args ...interface{}) error {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dst[key] = count
	}
	return rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
