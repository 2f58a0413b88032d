// ABOUTME: Tests for the file-backed vector store
// ABOUTME: Covers save/load round trips, rebuild on missing artifacts and alignment checks
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/harper/budget-simulator/internal/dataset"
	"github.com/harper/budget-simulator/internal/models"
)

func testRecords(n int) ([]models.Project, [][]float64) {
	records := make([]models.Project, n)
	matrix := make([][]float64, n)
	for i := 0; i < n; i++ {
		records[i] = models.Project{
			ID:            int64(i + 1),
			ProjectName:   "事業",
			InitialBudget: float64((i + 1) * 100),
			Year:          2024,
			Rating:        models.RatingB,
		}
		row := make([]float64, 4)
		row[i%4] = 1
		matrix[i] = row
	}
	return records, matrix
}

type countingRebuilder struct {
	mu    sync.Mutex
	calls int
	n     int
}

func (c *countingRebuilder) Rebuild(ctx context.Context) (*dataset.Result, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	records, matrix := testRecords(c.n)
	return &dataset.Result{Records: records, Matrix: matrix, Report: dataset.Report{SourceRows: c.n}}, nil
}

func TestVectorStore_SaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	records, matrix := testRecords(3)

	vs := NewVectorStore(dir, nil, nil)
	if err := vs.Save(records, matrix); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// a fresh store reads what the first one wrote
	reloaded := NewVectorStore(dir, nil, nil)
	snap, err := reloaded.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if snap.Len() != 3 || len(snap.Matrix) != 3 {
		t.Fatalf("snapshot = %d records, %d rows", snap.Len(), len(snap.Matrix))
	}
	for i := range records {
		if snap.Records[i].ID != records[i].ID || snap.Records[i].InitialBudget != records[i].InitialBudget {
			t.Errorf("record %d = %+v, want %+v", i, snap.Records[i], records[i])
		}
		for j := range matrix[i] {
			if snap.Matrix[i][j] != matrix[i][j] {
				t.Errorf("Matrix[%d][%d] = %f, want %f", i, j, snap.Matrix[i][j], matrix[i][j])
			}
		}
	}
	if snap.Dimension() != 4 {
		t.Errorf("Dimension() = %d, want 4", snap.Dimension())
	}
}

func TestVectorStore_SaveReplacesPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	vs := NewVectorStore(dir, nil, nil)

	first, m1 := testRecords(2)
	if err := vs.Save(first, m1); err != nil {
		t.Fatal(err)
	}
	second, m2 := testRecords(5)
	if err := vs.Save(second, m2); err != nil {
		t.Fatal(err)
	}

	if got := vs.Current().Len(); got != 5 {
		t.Errorf("Current().Len() = %d, want 5", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	versions := 0
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), indexPrefix) {
			versions++
		}
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if versions != 1 {
		t.Errorf("index versions on disk = %d, want 1", versions)
	}

	snap, err := NewVectorStore(dir, nil, nil).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != 5 {
		t.Errorf("reloaded Len() = %d, want 5", snap.Len())
	}
}

func TestVectorStore_SaveRejectsMisaligned(t *testing.T) {
	vs := NewVectorStore(t.TempDir(), nil, nil)
	records, matrix := testRecords(3)

	if err := vs.Save(records[:2], matrix); !errors.Is(err, ErrMisaligned) {
		t.Errorf("Save(2 records, 3 rows) = %v, want ErrMisaligned", err)
	}

	matrix[1] = []float64{1, 2}
	if err := vs.Save(records, matrix); !errors.Is(err, ErrMisaligned) {
		t.Errorf("Save(ragged matrix) = %v, want ErrMisaligned", err)
	}
	if vs.Current() != nil {
		t.Error("failed Save should not swap in a snapshot")
	}
}

func TestVectorStore_LoadRebuildsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	rb := &countingRebuilder{n: 4}
	vs := NewVectorStore(dir, rb, nil)

	snap, err := vs.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if snap.Len() != 4 || rb.calls != 1 {
		t.Errorf("Len() = %d, rebuild calls = %d", snap.Len(), rb.calls)
	}
	if vs.LastReport() == nil || vs.LastReport().SourceRows != 4 {
		t.Errorf("LastReport() = %+v", vs.LastReport())
	}

	// second load is served from memory
	if _, err := vs.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rb.calls != 1 {
		t.Errorf("rebuild calls = %d, want 1", rb.calls)
	}
}

func TestVectorStore_LoadRebuildsWhenArtifactMissing(t *testing.T) {
	for _, artifact := range []string{MatrixFile, MetadataFile} {
		t.Run(artifact, func(t *testing.T) {
			dir := t.TempDir()
			records, matrix := testRecords(2)
			if err := NewVectorStore(dir, nil, nil).Save(records, matrix); err != nil {
				t.Fatal(err)
			}

			pointer, _ := os.ReadFile(filepath.Join(dir, pointerFile))
			version := strings.TrimSpace(string(pointer))
			if err := os.Remove(filepath.Join(dir, version, artifact)); err != nil {
				t.Fatal(err)
			}

			rb := &countingRebuilder{n: 6}
			snap, err := NewVectorStore(dir, rb, nil).Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if rb.calls != 1 || snap.Len() != 6 {
				t.Errorf("rebuild calls = %d, Len() = %d", rb.calls, snap.Len())
			}
		})
	}
}

func TestVectorStore_LoadRebuildsOnMisalignedArtifacts(t *testing.T) {
	dir := t.TempDir()
	records, matrix := testRecords(3)
	if err := NewVectorStore(dir, nil, nil).Save(records, matrix); err != nil {
		t.Fatal(err)
	}

	// overwrite the matrix with one that has fewer rows
	pointer, _ := os.ReadFile(filepath.Join(dir, pointerFile))
	f, err := os.Create(filepath.Join(dir, strings.TrimSpace(string(pointer)), MatrixFile))
	if err != nil {
		t.Fatal(err)
	}
	if err := writeMatrix(f, matrix[:1]); err != nil {
		t.Fatal(err)
	}
	f.Close()

	rb := &countingRebuilder{n: 2}
	snap, err := NewVectorStore(dir, rb, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if rb.calls != 1 || snap.Len() != len(snap.Matrix) {
		t.Errorf("rebuild calls = %d, snapshot %d/%d", rb.calls, snap.Len(), len(snap.Matrix))
	}
}

func TestVectorStore_SaveRejectsInvalidRecords(t *testing.T) {
	vs := NewVectorStore(t.TempDir(), nil, nil)
	records, matrix := testRecords(2)
	records[1].InitialBudget = 0

	if err := vs.Save(records, matrix); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Save(zero budget) = %v, want ErrCorrupt", err)
	}
}

func TestVectorStore_LoadRebuildsOnInvalidRecord(t *testing.T) {
	dir := t.TempDir()
	records, matrix := testRecords(2)
	if err := NewVectorStore(dir, nil, nil).Save(records, matrix); err != nil {
		t.Fatal(err)
	}

	// rewrite the metadata with a rating outside A-D
	pointer, _ := os.ReadFile(filepath.Join(dir, pointerFile))
	metaPath := filepath.Join(dir, strings.TrimSpace(string(pointer)), MetadataFile)
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(raw), `"rating":"B"`, `"rating":"Z"`, 1)
	if tampered == string(raw) {
		t.Fatalf("metadata does not contain a B rating: %s", raw)
	}
	if err := os.WriteFile(metaPath, []byte(tampered), 0o644); err != nil {
		t.Fatal(err)
	}

	rb := &countingRebuilder{n: 3}
	snap, err := NewVectorStore(dir, rb, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if rb.calls != 1 || snap.Len() != 3 {
		t.Errorf("rebuild calls = %d, Len() = %d", rb.calls, snap.Len())
	}
}

func TestVectorStore_LoadRebuildsOnZeroDimensionHeader(t *testing.T) {
	dir := t.TempDir()
	records, matrix := testRecords(2)
	if err := NewVectorStore(dir, nil, nil).Save(records, matrix); err != nil {
		t.Fatal(err)
	}

	pointer, _ := os.ReadFile(filepath.Join(dir, pointerFile))
	matrixPath := filepath.Join(dir, strings.TrimSpace(string(pointer)), MatrixFile)
	if err := os.WriteFile(matrixPath, matrixHeader(1<<62, 0), 0o644); err != nil {
		t.Fatal(err)
	}

	rb := &countingRebuilder{n: 2}
	snap, err := NewVectorStore(dir, rb, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if rb.calls != 1 || snap.Len() != 2 {
		t.Errorf("rebuild calls = %d, Len() = %d", rb.calls, snap.Len())
	}
}

func TestVectorStore_LoadWithoutRebuilder(t *testing.T) {
	_, err := NewVectorStore(t.TempDir(), nil, nil).Load(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() = %v, want ErrNotFound", err)
	}
}

func TestVectorStore_RebuildError(t *testing.T) {
	boom := errors.New("boom")
	rb := RebuildFunc(func(ctx context.Context) (*dataset.Result, error) { return nil, boom })

	_, err := NewVectorStore(t.TempDir(), rb, nil).Rebuild(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Rebuild() = %v, want wrapped boom", err)
	}
}

func TestVectorStore_ConcurrentLoadRebuildsOnce(t *testing.T) {
	rb := &countingRebuilder{n: 3}
	vs := NewVectorStore(t.TempDir(), rb, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := vs.Load(context.Background()); err != nil {
				t.Errorf("Load() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if rb.calls != 1 {
		t.Errorf("rebuild calls = %d, want 1", rb.calls)
	}
}

func TestVectorStore_SnapshotIsolatedFromCaller(t *testing.T) {
	vs := NewVectorStore(t.TempDir(), nil, nil)
	records, matrix := testRecords(1)
	if err := vs.Save(records, matrix); err != nil {
		t.Fatal(err)
	}

	matrix[0][0] = 42
	records[0].ProjectName = "changed"

	snap := vs.Current()
	if snap.Matrix[0][0] == 42 || snap.Records[0].ProjectName == "changed" {
		t.Error("snapshot shares memory with caller slices")
	}
}
