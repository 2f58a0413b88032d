// ABOUTME: Table fixtures for dataset tests
// ABOUTME: Japanese source headers and row builders
package dataset

import (
	"strconv"
	"strings"
)

var japaneseHeader = []string{
	"予算事業ID", "府省庁", "局・庁", "事業の概要", "当初予算", "歳出予算現額",
	"事業名", "現状・課題", "規模区分", "相対誤差%", "embedding_sum",
}

func embeddingCell(n int, v float64) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func row(id, summary, budget, issue, errorRate, emb string) []string {
	return []string{id, "総務省", "情報流通行政局", summary, budget, budget, "事業" + id, issue, "中規模", errorRate, emb}
}
