// ABOUTME: Similarity search candidates produced per query
// ABOUTME: Candidate pairs a matrix row index with its cosine similarity
package models

// Candidate is a transient (row index, cosine similarity) pair.
// Search results are ordered by Score descending.
type Candidate struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}
