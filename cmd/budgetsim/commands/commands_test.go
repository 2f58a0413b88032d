// ABOUTME: End-to-end tests for the data commands against a fixture index
// ABOUTME: Runs ingest, projects, stats, analyze and logs through the root command

package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/budget-simulator/internal/models"
	"github.com/harper/budget-simulator/internal/service/servicetest"
)

// setupEnv points the CLI at a fresh data directory holding the fixture source
func setupEnv(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	source := filepath.Join(dir, "projects.csv")
	servicetest.WriteCSV(t, source, servicetest.DefaultRows)

	t.Setenv("BUDGET_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("BUDGET_SOURCE_PATH", source)
	t.Setenv("VECTOR_DIMENSION", "4")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

func TestIngestCmd(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "ingest", "--format", "json")
	if err != nil {
		t.Fatalf("ingest error = %v", err)
	}

	var report struct {
		SourceRows       int  `json:"source_rows"`
		ParsedEmbeddings int  `json:"parsed_embeddings"`
		Fallback         bool `json:"fallback"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if report.SourceRows != 3 {
		t.Errorf("source_rows = %d, want 3", report.SourceRows)
	}
	if report.ParsedEmbeddings != 3 {
		t.Errorf("parsed_embeddings = %d, want 3", report.ParsedEmbeddings)
	}
	if report.Fallback {
		t.Error("fallback = true, want false")
	}
}

func TestIngestCmd_Table(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "ingest")
	if err != nil {
		t.Fatalf("ingest error = %v", err)
	}
	if !strings.Contains(out, "Indexed projects:") {
		t.Errorf("output should contain the indexed count, got:\n%s", out)
	}
}

func TestProjectsCmd(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "projects", "--limit", "2", "--format", "json")
	if err != nil {
		t.Fatalf("projects error = %v", err)
	}

	var payload struct {
		Projects   []models.ProjectSummary `json:"projects"`
		TotalCount int                     `json:"total_count"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if payload.TotalCount != 3 {
		t.Errorf("total_count = %d, want 3", payload.TotalCount)
	}
	if len(payload.Projects) != 2 {
		t.Fatalf("len(projects) = %d, want 2", len(payload.Projects))
	}
	if payload.Projects[0].ID != 1 {
		t.Errorf("projects[0].id = %d, want 1", payload.Projects[0].ID)
	}
}

func TestProjectsCmd_InvalidLimit(t *testing.T) {
	setupEnv(t)

	if _, err := runCLI(t, "projects", "--limit", "0"); err == nil {
		t.Error("projects --limit 0: expected error, got nil")
	}
}

func TestStatsCmd(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}

	for _, want := range []string{"Projects:", "¥100,000,000", "¥300,000,000", "Rating A:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got:\n%s", want, out)
		}
	}
}

func TestInfoCmd(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "info", "--format", "json")
	if err != nil {
		t.Fatalf("info error = %v", err)
	}
	var info struct {
		Loaded bool `json:"loaded"`
		TopK   int  `json:"top_k"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if info.Loaded || info.TopK != 10 {
		t.Errorf("info = %+v, want unloaded with top_k 10", info)
	}

	out, err = runCLI(t, "info", "--load")
	if err != nil {
		t.Fatalf("info --load error = %v", err)
	}
	for _, want := range []string{"Projects:", "Rebuilt on load:", "Source rows:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got:\n%s", want, out)
		}
	}
}

func TestAnalyzeCmd_RecordsLog(t *testing.T) {
	setupEnv(t)

	if _, err := runCLI(t, "analyze", "--proposed", "150000000", "公共交通の空白地帯が広がっている", "デマンド交通を導入する"); err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	out, err := runCLI(t, "logs", "--format", "json")
	if err != nil {
		t.Fatalf("logs error = %v", err)
	}

	var logs []models.AnalysisLog
	if err := json.Unmarshal([]byte(out), &logs); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	if logs[0].Status != models.LogStatusSuccess {
		t.Errorf("status = %q, want %q", logs[0].Status, models.LogStatusSuccess)
	}
	if logs[0].UserAgent != "budgetsim-cli" {
		t.Errorf("user_agent = %q, want budgetsim-cli", logs[0].UserAgent)
	}
	if logs[0].ProposedBudget == nil || *logs[0].ProposedBudget != 150_000_000 {
		t.Errorf("proposed_budget = %v, want 150000000", logs[0].ProposedBudget)
	}
}

func TestAnalyzeCmd_Args(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing summary", []string{"analyze", "issue"}},
		{"blank issue", []string{"analyze", "  ", "summary"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLogsCmd_Empty(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "logs")
	if err != nil {
		t.Fatalf("logs error = %v", err)
	}
	if !strings.Contains(out, "No analysis logs found") {
		t.Errorf("output = %q, want empty notice", out)
	}
}

func TestLogsCmd_InvalidLimit(t *testing.T) {
	setupEnv(t)

	if _, err := runCLI(t, "logs", "--limit", "101"); err == nil {
		t.Error("logs --limit 101: expected error, got nil")
	}
}

func TestLogsShowCmd_NotFound(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "logs", "show", "999")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("logs show 999 error = %v, want not found", err)
	}
}

func TestLogsCleanupCmd(t *testing.T) {
	setupEnv(t)

	if _, err := runCLI(t, "logs", "cleanup", "--days", "0"); err == nil {
		t.Error("cleanup --days 0: expected error, got nil")
	}

	out, err := runCLI(t, "logs", "cleanup", "--days", "30")
	if err != nil {
		t.Fatalf("cleanup error = %v", err)
	}
	if !strings.Contains(out, "Deleted 0 log(s) older than 30 day(s)") {
		t.Errorf("output = %q, want deletion summary", out)
	}
}

func TestLogsStatsCmd(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "logs", "stats", "--format", "json")
	if err != nil {
		t.Fatalf("logs stats error = %v", err)
	}

	var stats models.LogStats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if stats.TotalCount != 0 {
		t.Errorf("total_count = %d, want 0", stats.TotalCount)
	}
}
