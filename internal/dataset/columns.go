// ABOUTME: Canonical field names and the source header aliases that map onto them
// ABOUTME: Resolves a table header into column positions and reports missing fields
package dataset

import "strings"

// Canonical field names of a project row.
const (
	FieldID            = "id"
	FieldMinistry      = "ministry"
	FieldBureau        = "bureau"
	FieldSummary       = "summary_text"
	FieldInitialBudget = "initial_budget"
	FieldCurrentBudget = "current_budget"
	FieldProjectName   = "project_name"
	FieldIssue         = "issue_text"
	FieldScaleCategory = "scale_category"
	FieldErrorRate     = "error_rate"
	FieldEmbedding     = "embedding"
)

// RequiredFields must all be present in a source header. The embedding column
// is optional: without it every row gets a fallback vector.
var RequiredFields = []string{
	FieldID,
	FieldMinistry,
	FieldBureau,
	FieldSummary,
	FieldInitialBudget,
	FieldCurrentBudget,
	FieldProjectName,
	FieldIssue,
	FieldScaleCategory,
	FieldErrorRate,
}

// headerAliases maps source headers (Japanese administrative review exports
// and their English equivalents) to canonical fields.
var headerAliases = map[string]string{
	"予算事業ID":        FieldID,
	"府省庁":           FieldMinistry,
	"局・庁":           FieldBureau,
	"事業の概要":         FieldSummary,
	"当初予算":          FieldInitialBudget,
	"歳出予算現額":        FieldCurrentBudget,
	"事業名":           FieldProjectName,
	"現状・課題":         FieldIssue,
	"規模区分":          FieldScaleCategory,
	"相対誤差%":         FieldErrorRate,
	"embedding_sum": FieldEmbedding,
}

func init() {
	for _, f := range RequiredFields {
		headerAliases[f] = f
	}
	headerAliases[FieldEmbedding] = FieldEmbedding
}

// columnIndex maps canonical fields to their position in a row
type columnIndex map[string]int

// resolveColumns matches header cells against the alias table. The first
// occurrence of a field wins. It returns the required fields that are absent.
func resolveColumns(header []string) (columnIndex, []string) {
	idx := make(columnIndex)
	for i, h := range header {
		field, ok := headerAliases[strings.TrimSpace(h)]
		if !ok {
			continue
		}
		if _, seen := idx[field]; !seen {
			idx[field] = i
		}
	}

	var missing []string
	for _, f := range RequiredFields {
		if _, ok := idx[f]; !ok {
			missing = append(missing, f)
		}
	}
	return idx, missing
}

// value returns the cell for field in row, or "" when the column is absent
// or the row is short.
func (c columnIndex) value(row []string, field string) string {
	i, ok := c[field]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
