// ABOUTME: Tests for logger construction
// ABOUTME: Verifies level parsing and JSON output formatting
package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"DEBUG", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"info", log.InfoLevel},
		{"", log.InfoLevel},
		{"bogus", log.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	logger.Info("index loaded", "projects", 3)
	logger.Debug("hidden at info level")

	out := buf.String()
	if !strings.Contains(out, `"msg":"index loaded"`) {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, `"projects":3`) {
		t.Errorf("output missing key-value pair: %s", out)
	}
	if strings.Contains(out, "hidden at info level") {
		t.Errorf("debug line should be filtered: %s", out)
	}
}
