// ABOUTME: Dataset builder turning a raw project table into records plus an aligned matrix
// ABOUTME: Filters, derives ratings and outcomes, and parses embedding cells per row
package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/harper/budget-simulator/internal/embedding"
	"github.com/harper/budget-simulator/internal/logging"
	"github.com/harper/budget-simulator/internal/models"
)

// minTextLength is the rune count a summary or issue text must exceed to keep a row
const minTextLength = 10

// Report aggregates what happened during one ingestion run
type Report struct {
	Source             string `json:"source" yaml:"source"`
	SourceRows         int    `json:"source_rows" yaml:"source_rows"`
	DroppedBudget      int    `json:"dropped_budget" yaml:"dropped_budget"`
	DroppedText        int    `json:"dropped_text" yaml:"dropped_text"`
	ParsedEmbeddings   int    `json:"parsed_embeddings" yaml:"parsed_embeddings"`
	FallbackEmbeddings int    `json:"fallback_embeddings" yaml:"fallback_embeddings"`
	ZeroNormRows       int    `json:"zero_norm_rows" yaml:"zero_norm_rows"`
	Fallback           bool   `json:"fallback" yaml:"fallback"`
	FallbackReason     string `json:"fallback_reason,omitempty" yaml:"fallback_reason,omitempty"`
}

// Result is the output of an ingestion run. Records[i] corresponds to Matrix[i].
type Result struct {
	Records []models.Project
	Matrix  [][]float64
	Report  Report
}

// Builder produces a Result from a raw table
type Builder struct {
	Dimension     int
	ReportingYear int
	Logger        *log.Logger

	parser *embedding.Parser
}

// NewBuilder creates a builder for dim-length vectors stamped with the given year
func NewBuilder(dim, year int, logger *log.Logger) *Builder {
	if dim <= 0 {
		dim = embedding.DefaultDimension
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Builder{
		Dimension:     dim,
		ReportingYear: year,
		Logger:        logger,
		parser:        embedding.NewParser(dim),
	}
}

// BuildFromFile reads path and builds from it. An unreadable source falls back
// to the sample dataset; only context cancellation is returned as an error.
func (b *Builder) BuildFromFile(ctx context.Context, path string) (*Result, error) {
	table, err := ReadTable(path)
	if err != nil {
		b.Logger.Warn("source unreadable, using sample dataset", "path", path, "err", err)
		res := SampleDataset(b.Dimension, b.ReportingYear)
		res.Report.Source = path
		res.Report.FallbackReason = err.Error()
		return res, nil
	}

	res, err := b.Build(ctx, table)
	if err != nil {
		return nil, err
	}
	res.Report.Source = path
	return res, nil
}

// Build runs the ingestion pipeline over table: column resolution, numeric
// coercion, row filtering, derived fields, then embedding parsing and row
// normalisation. A table missing required columns yields the sample dataset.
func (b *Builder) Build(ctx context.Context, table *Table) (*Result, error) {
	cols, missing := resolveColumns(table.Header)
	if len(missing) > 0 {
		b.Logger.Warn("source missing required columns, using sample dataset", "missing", missing)
		res := SampleDataset(b.Dimension, b.ReportingYear)
		res.Report.SourceRows = len(table.Rows)
		res.Report.FallbackReason = "missing columns: " + strings.Join(missing, ", ")
		return res, nil
	}

	res := &Result{
		Records: make([]models.Project, 0, len(table.Rows)),
		Matrix:  make([][]float64, 0, len(table.Rows)),
		Report:  Report{SourceRows: len(table.Rows)},
	}

	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ingestion cancelled at row %d: %w", i, err)
		}

		p := b.project(cols, row, i)
		if p.InitialBudget <= 0 {
			res.Report.DroppedBudget++
			continue
		}
		if utf8.RuneCountInString(p.SummaryText) <= minTextLength &&
			utf8.RuneCountInString(p.IssueText) <= minTextLength {
			res.Report.DroppedText++
			continue
		}

		cell := cols.value(row, FieldEmbedding)
		vec, parsed := b.parser.Parse(cell, rowSeed(p.ID, cell))
		if parsed {
			res.Report.ParsedEmbeddings++
		} else {
			res.Report.FallbackEmbeddings++
			b.Logger.Debug("embedding cell unusable, substituted fallback vector", "row", i+2, "id", p.ID)
		}
		if !embedding.NormalizeInPlace(vec) {
			res.Report.ZeroNormRows++
		}

		res.Records = append(res.Records, p)
		res.Matrix = append(res.Matrix, vec)
	}

	b.Logger.Info("dataset built",
		"rows", res.Report.SourceRows,
		"kept", len(res.Records),
		"dropped_budget", res.Report.DroppedBudget,
		"dropped_text", res.Report.DroppedText,
		"fallback_embeddings", res.Report.FallbackEmbeddings)

	return res, nil
}

// project maps one raw row to a record with derived fields filled in
func (b *Builder) project(cols columnIndex, row []string, i int) models.Project {
	errorRate := coerceNumber(cols.value(row, FieldErrorRate))
	summary := cols.value(row, FieldSummary)

	id, ok := parseID(cols.value(row, FieldID))
	if !ok {
		// data rows start on line 2 of the source
		id = int64(i + 2)
	}

	return models.Project{
		ID:            id,
		ProjectName:   cols.value(row, FieldProjectName),
		Ministry:      cols.value(row, FieldMinistry),
		Bureau:        cols.value(row, FieldBureau),
		IssueText:     cols.value(row, FieldIssue),
		SummaryText:   summary,
		Description:   summary,
		Outcomes:      models.OutcomesForErrorRate(errorRate),
		InitialBudget: coerceNumber(cols.value(row, FieldInitialBudget)),
		CurrentBudget: coerceNumber(cols.value(row, FieldCurrentBudget)),
		Year:          b.ReportingYear,
		Rating:        models.RatingFromErrorRate(errorRate),
		ScaleCategory: strings.TrimSpace(cols.value(row, FieldScaleCategory)),
		ErrorRate:     errorRate,
	}
}

// coerceNumber parses a numeric cell, tolerating thousands separators and
// surrounding whitespace. Anything unparseable, NaN or infinite becomes 0.
func coerceNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.NewReplacer(",", "", "，", "", "¥", "", "円", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	// spreadsheets often export integer ids as "123.0"
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f), true
	}
	return 0, false
}

func rowSeed(id int64, cell string) uint64 {
	return embedding.SeedFromText(strconv.FormatInt(id, 10) + "\x00" + cell)
}
