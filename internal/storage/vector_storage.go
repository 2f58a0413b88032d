// ABOUTME: File-backed vector store pairing the embedding matrix with project metadata
// ABOUTME: Versioned index directories swapped atomically through a CURRENT pointer
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harper/budget-simulator/internal/dataset"
	"github.com/harper/budget-simulator/internal/logging"
	"github.com/harper/budget-simulator/internal/models"
)

const (
	MatrixFile   = "embeddings.bin"
	MetadataFile = "metadata.json"
	pointerFile  = "CURRENT"
	indexPrefix  = "index-"
)

var (
	// ErrNotFound is returned when an index or project does not exist
	ErrNotFound = errors.New("not found")
	// ErrMisaligned is returned when matrix rows and metadata records disagree
	ErrMisaligned = errors.New("matrix and metadata are misaligned")
)

// Rebuilder produces a fresh dataset when no usable index is on disk
type Rebuilder interface {
	Rebuild(ctx context.Context) (*dataset.Result, error)
}

// RebuildFunc adapts a function to the Rebuilder interface
type RebuildFunc func(ctx context.Context) (*dataset.Result, error)

// Rebuild calls f(ctx)
func (f RebuildFunc) Rebuild(ctx context.Context) (*dataset.Result, error) {
	return f(ctx)
}

// metadataDoc is the on-disk layout of metadata.json
type metadataDoc struct {
	FormatVersion int              `json:"format_version"`
	CreatedAt     time.Time        `json:"created_at"`
	Dimension     int              `json:"dimension"`
	Count         int              `json:"count"`
	Records       []models.Project `json:"records"`
}

// VectorStore owns the persisted index. It is constructed once per process
// and handed to the search and prediction components.
type VectorStore struct {
	dir       string
	rebuilder Rebuilder
	logger    *log.Logger

	mu      sync.Mutex // serialises load, save and rebuild
	current atomic.Pointer[Snapshot]

	lastReport atomic.Pointer[dataset.Report]
}

// NewVectorStore creates a store rooted at dir. rebuilder may be nil, in which
// case a missing index is reported as ErrNotFound instead of rebuilt.
func NewVectorStore(dir string, rebuilder Rebuilder, logger *log.Logger) *VectorStore {
	if logger == nil {
		logger = logging.Discard()
	}
	return &VectorStore{dir: dir, rebuilder: rebuilder, logger: logger}
}

// Dir returns the root directory of the store
func (vs *VectorStore) Dir() string {
	return vs.dir
}

// Current returns the loaded snapshot, or nil before the first Load
func (vs *VectorStore) Current() *Snapshot {
	return vs.current.Load()
}

// LastReport returns the report of the most recent rebuild in this process
func (vs *VectorStore) LastReport() *dataset.Report {
	return vs.lastReport.Load()
}

// Load returns the current snapshot, reading it from disk on first use. A
// missing, corrupt or misaligned index triggers a full rebuild. Other I/O
// failures are returned as is.
func (vs *VectorStore) Load(ctx context.Context) (*Snapshot, error) {
	if snap := vs.current.Load(); snap != nil {
		return snap, nil
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()

	if snap := vs.current.Load(); snap != nil {
		return snap, nil
	}

	snap, err := vs.readCurrent()
	if err == nil {
		vs.current.Store(snap)
		vs.logger.Info("index loaded", "version", snap.Version, "projects", snap.Len(), "dimension", snap.Dimension())
		return snap, nil
	}
	if !rebuildable(err) {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}

	vs.logger.Warn("index unusable, rebuilding", "dir", vs.dir, "reason", err)
	return vs.rebuildLocked(ctx)
}

// Rebuild runs a new ingestion and swaps it in once it is fully written
func (vs *VectorStore) Rebuild(ctx context.Context) (*Snapshot, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.rebuildLocked(ctx)
}

// Save persists records and matrix as a new index version and makes it current
func (vs *VectorStore) Save(records []models.Project, matrix [][]float64) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	_, err := vs.saveLocked(records, matrix)
	return err
}

func (vs *VectorStore) rebuildLocked(ctx context.Context) (*Snapshot, error) {
	if vs.rebuilder == nil {
		return nil, fmt.Errorf("no index in %s and no rebuilder configured: %w", vs.dir, ErrNotFound)
	}

	res, err := vs.rebuilder.Rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild index: %w", err)
	}

	snap, err := vs.saveLocked(res.Records, res.Matrix)
	if err != nil {
		return nil, err
	}
	report := res.Report
	vs.lastReport.Store(&report)
	return snap, nil
}

func (vs *VectorStore) saveLocked(records []models.Project, matrix [][]float64) (*Snapshot, error) {
	dim, err := validatePair(records, matrix)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(vs.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	version := indexPrefix + uuid.NewString()
	versionDir := filepath.Join(vs.dir, version)
	if err := os.Mkdir(versionDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index version: %w", err)
	}

	if err := writeArtifacts(versionDir, records, matrix, dim); err != nil {
		_ = os.RemoveAll(versionDir)
		return nil, err
	}
	if err := writeFileAtomic(filepath.Join(vs.dir, pointerFile), []byte(version+"\n")); err != nil {
		_ = os.RemoveAll(versionDir)
		return nil, fmt.Errorf("failed to switch index pointer: %w", err)
	}

	vs.removeStale(version)

	snap := newSnapshot(version, cloneRecords(records), cloneMatrix(matrix))
	vs.current.Store(snap)
	vs.logger.Info("index saved", "version", version, "projects", len(records), "dimension", dim)
	return snap, nil
}

// readCurrent loads the version named by the pointer file
func (vs *VectorStore) readCurrent() (*Snapshot, error) {
	raw, err := os.ReadFile(filepath.Join(vs.dir, pointerFile))
	if err != nil {
		return nil, err
	}
	version := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(version, indexPrefix) || strings.ContainsAny(version, `/\`) {
		return nil, fmt.Errorf("%w: bad pointer %q", ErrCorrupt, version)
	}
	versionDir := filepath.Join(vs.dir, version)

	matrix, err := readMatrixFile(filepath.Join(versionDir, MatrixFile))
	if err != nil {
		return nil, err
	}

	metaRaw, err := os.ReadFile(filepath.Join(versionDir, MetadataFile))
	if err != nil {
		return nil, err
	}
	var doc metadataDoc
	if err := json.Unmarshal(metaRaw, &doc); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}

	if doc.Count != len(doc.Records) {
		return nil, fmt.Errorf("%w: metadata count %d, records %d", ErrMisaligned, doc.Count, len(doc.Records))
	}
	if _, err := validatePair(doc.Records, matrix); err != nil {
		return nil, err
	}

	return newSnapshot(version, doc.Records, matrix), nil
}

// removeStale deletes every index version other than keep
func (vs *VectorStore) removeStale(keep string) {
	entries, err := os.ReadDir(vs.dir)
	if err != nil {
		vs.logger.Warn("failed to list index versions", "err", err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == keep || !strings.HasPrefix(e.Name(), indexPrefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(vs.dir, e.Name())); err != nil {
			vs.logger.Warn("failed to remove stale index", "version", e.Name(), "err", err)
		}
	}
}

func validatePair(records []models.Project, matrix [][]float64) (int, error) {
	if len(records) != len(matrix) {
		return 0, fmt.Errorf("%w: %d records, %d rows", ErrMisaligned, len(records), len(matrix))
	}
	if len(matrix) == 0 {
		return 0, nil
	}
	dim := len(matrix[0])
	if dim == 0 {
		return 0, fmt.Errorf("%w: zero-length vectors", ErrMisaligned)
	}
	for i, row := range matrix {
		if len(row) != dim {
			return 0, fmt.Errorf("%w: row %d has %d values, want %d", ErrMisaligned, i, len(row), dim)
		}
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return 0, fmt.Errorf("%w: record %d (id %d): %v", ErrCorrupt, i, records[i].ID, err)
		}
	}
	return dim, nil
}

func writeArtifacts(dir string, records []models.Project, matrix [][]float64, dim int) error {
	mf, err := os.Create(filepath.Join(dir, MatrixFile))
	if err != nil {
		return fmt.Errorf("failed to create matrix file: %w", err)
	}
	if err := writeMatrix(mf, matrix); err != nil {
		mf.Close()
		return fmt.Errorf("failed to write matrix: %w", err)
	}
	if err := mf.Sync(); err != nil {
		mf.Close()
		return fmt.Errorf("failed to sync matrix: %w", err)
	}
	if err := mf.Close(); err != nil {
		return fmt.Errorf("failed to close matrix: %w", err)
	}

	doc := metadataDoc{
		FormatVersion: 1,
		CreatedAt:     time.Now().UTC(),
		Dimension:     dim,
		Count:         len(records),
		Records:       records,
	}
	if doc.Records == nil {
		doc.Records = []models.Project{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, MetadataFile), data); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func readMatrixFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return readMatrix(f, info.Size())
}

// writeFileAtomic writes data to a temp file beside path, syncs it, then
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// rebuildable reports whether a load error means the index is absent or
// unusable, as opposed to the directory being unreadable.
func rebuildable(err error) bool {
	if errors.Is(err, fs.ErrPermission) {
		return false
	}
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrCorrupt) || errors.Is(err, ErrMisaligned)
}

func cloneRecords(records []models.Project) []models.Project {
	if records == nil {
		return []models.Project{}
	}
	return slices.Clone(records)
}

func cloneMatrix(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = slices.Clone(row)
	}
	return out
}
