// ABOUTME: Main storage entry point for the budget simulator
// ABOUTME: Opens the project index and analysis log database under one data directory
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/harper/budget-simulator/internal/logging"
	"github.com/harper/budget-simulator/internal/storage/sqlite"
)

// IndexDirName is the subdirectory of the data dir holding index versions
const IndexDirName = "index"

// Options configures Open
type Options struct {
	DataDir   string
	LogDBPath string // defaults to <DataDir>/policy_analysis.db
	Rebuilder Rebuilder
	Logger    *log.Logger
}

// Storage manages all persistent data: the vector index and the audit log
type Storage struct {
	Index *VectorStore
	Logs  *sqlite.LogStore

	db      *sqlite.DB
	dataDir string
}

// Open creates the data directory if needed, opens the log database and
// prepares the vector store. The index itself is loaded lazily.
func Open(opts Options) (*Storage, error) {
	if opts.DataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", opts.DataDir, err)
	}

	dbPath := opts.LogDBPath
	if dbPath == "" {
		dbPath = filepath.Join(opts.DataDir, "policy_analysis.db")
	}
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log database: %w", err)
	}

	return &Storage{
		Index:   NewVectorStore(filepath.Join(opts.DataDir, IndexDirName), opts.Rebuilder, opts.Logger),
		Logs:    sqlite.NewLogStore(db),
		db:      db,
		dataDir: opts.DataDir,
	}, nil
}

// DataDir returns the root data directory
func (s *Storage) DataDir() string {
	return s.dataDir
}

// Close closes the log database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
