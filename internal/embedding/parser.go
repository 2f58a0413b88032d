// ABOUTME: Embedding parser recovering fixed-dimension vectors from serialized cells
// ABOUTME: Extracts numeric tokens, pads or truncates, and falls back on unusable cells
package embedding

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MinTokens is the fewest numeric tokens a cell needs to count as an embedding.
const MinTokens = 100

var numberToken = regexp.MustCompile(`[-+]?\d+(?:\.\d*)?(?:[eE][-+]?\d+)?`)

// Parser recovers fixed-dimension vectors from serialized embedding cells.
type Parser struct {
	Dimension int
	MinTokens int
}

// NewParser returns a Parser for dim-length vectors.
func NewParser(dim int) *Parser {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Parser{Dimension: dim, MinTokens: MinTokens}
}

// Parse extracts the numeric tokens of cell and fits them to the parser's
// dimension: truncated when longer, zero-padded when shorter. When the cell is
// blank, "nan", or holds fewer than MinTokens numbers it returns
// FallbackVector(seed) and ok=false. Parse never panics.
func (p *Parser) Parse(cell string, seed uint64) (vec []float64, ok bool) {
	values := p.tokens(cell)
	if len(values) < p.MinTokens {
		return FallbackVector(seed, p.Dimension), false
	}

	vec = make([]float64, p.Dimension)
	copy(vec, values)
	return vec, true
}

func (p *Parser) tokens(cell string) []float64 {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" || strings.EqualFold(trimmed, "nan") {
		return nil
	}

	matches := numberToken.FindAllString(trimmed, -1)
	values := make([]float64, 0, len(matches))
	for _, m := range matches {
		f, err := strconv.ParseFloat(m, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		values = append(values, f)
	}
	return values
}
