// ABOUTME: Tests for the storage entry point
// ABOUTME: Verifies directory layout and that index and log store work together
package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harper/budget-simulator/internal/models"
)

func TestOpen_CreatesLayout(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "budget-simulator")

	s, err := Open(Options{DataDir: dataDir, Rebuilder: &countingRebuilder{n: 2}})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dataDir, "policy_analysis.db")); err != nil {
		t.Errorf("log database not created: %v", err)
	}

	snap, err := s.Index.Load(context.Background())
	if err != nil {
		t.Fatalf("Index.Load() error: %v", err)
	}
	if snap.Len() != 2 {
		t.Errorf("Len() = %d, want 2", snap.Len())
	}
	if s.Index.Dir() != filepath.Join(dataDir, IndexDirName) {
		t.Errorf("Index.Dir() = %s", s.Index.Dir())
	}

	if _, err := s.Logs.Save(&models.AnalysisLog{IssueText: "i", SummaryText: "s"}); err != nil {
		t.Errorf("Logs.Save() error: %v", err)
	}
}

func TestOpen_RequiresDataDir(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Error("Open() without data dir should fail")
	}
}
