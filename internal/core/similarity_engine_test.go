// ABOUTME: Tests for similarity ranking
// ABOUTME: Covers ordering, stable ties, top-K bounds and dimension checks
package core

import (
	"context"
	"errors"
	"testing"
)

func TestRank_OrdersByScore(t *testing.T) {
	matrix := [][]float64{
		{0, 1},
		{1, 0},
		{0.6, 0.8},
	}

	got, err := Rank(matrix, []float64{3, 0}, 10)
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}

	wantIdx := []int{1, 2, 0}
	wantScore := []float64{1, 0.6, 0}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range wantIdx {
		if got[i].Index != wantIdx[i] || !approx(got[i].Score, wantScore[i]) {
			t.Errorf("got[%d] = %+v, want index %d score %f", i, got[i], wantIdx[i], wantScore[i])
		}
	}
}

func TestRank_TiesKeepRowOrder(t *testing.T) {
	matrix := [][]float64{{1, 0}, {0, 1}, {1, 0}, {1, 0}}

	got, err := Rank(matrix, []float64{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int{0, 2, 3} {
		if got[i].Index != want {
			t.Errorf("got[%d].Index = %d, want %d", i, got[i].Index, want)
		}
	}
}

func TestRank_TopKBound(t *testing.T) {
	matrix := [][]float64{{1, 0}, {0, 1}, {0.6, 0.8}}

	tests := []struct {
		k    int
		want int
	}{
		{1, 1},
		{2, 2},
		{10, 3},
		{0, 0},
	}
	for _, tt := range tests {
		got, err := Rank(matrix, []float64{1, 1}, tt.k)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("Rank(k=%d) len = %d, want %d", tt.k, len(got), tt.want)
		}
	}
}

func TestRank_ZeroQueryIsNotNormalized(t *testing.T) {
	got, err := Rank([][]float64{{1, 0}, {0, 1}}, []float64{0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range got {
		if c.Score != 0 {
			t.Errorf("score = %f, want 0 for zero query", c.Score)
		}
	}
	if got[0].Index != 0 {
		t.Errorf("zero scores should keep row order, got %+v", got)
	}
}

func TestRank_DimensionMismatch(t *testing.T) {
	_, err := Rank([][]float64{{1, 0}}, []float64{1, 0, 0}, 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestRank_EmptyIndex(t *testing.T) {
	got, err := Rank(nil, []float64{1}, 5)
	if err != nil || len(got) != 0 {
		t.Errorf("Rank(empty) = %v, %v", got, err)
	}
}

func TestSimilarityEngine_Search(t *testing.T) {
	snap := scoredSnapshot(t, []float64{1, 2, 3, 4}, []float64{0.2, 0.9, 0.4, 0.1})
	engine := NewSimilarityEngine(fixedIndex{snap: snap}, 2)

	if engine.TopK() != 2 {
		t.Errorf("TopK() = %d, want 2", engine.TopK())
	}

	got, gotSnap, err := engine.Search(context.Background(), []float64{1, 0}, 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if gotSnap != snap {
		t.Error("Search() should return the searched snapshot")
	}
	if len(got) != 2 || got[0].Index != 1 || got[1].Index != 2 {
		t.Errorf("Search() = %+v, want rows 1 then 2", got)
	}

	got, _, _ = engine.Search(context.Background(), []float64{1, 0}, 3)
	if len(got) != 3 {
		t.Errorf("explicit k=3 returned %d", len(got))
	}
}

func TestSimilarityEngine_LoadError(t *testing.T) {
	boom := errors.New("disk gone")
	engine := NewSimilarityEngine(fixedIndex{err: boom}, 0)

	if engine.TopK() != DefaultTopK {
		t.Errorf("TopK() = %d, want default %d", engine.TopK(), DefaultTopK)
	}
	if _, _, err := engine.Search(context.Background(), []float64{1}, 1); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped load error", err)
	}
}
