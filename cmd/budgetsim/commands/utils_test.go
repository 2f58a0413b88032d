// ABOUTME: Tests for shared utility functions used by CLI commands
// ABOUTME: Verifies truncate, formatYen, render and validation helpers

package commands

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string unchanged", input: "hello", maxLen: 10, want: "hello"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, want: "hello"},
		{name: "long string truncated", input: "hello world", maxLen: 8, want: "hello..."},
		{name: "very short maxLen", input: "hello", maxLen: 2, want: "he"},
		{name: "empty string", input: "", maxLen: 10, want: ""},
		{name: "japanese counted in runes", input: "地域交通再編事業", maxLen: 5, want: "地域..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestFormatYen(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "¥0"},
		{999, "¥999"},
		{1234567, "¥1,234,567"},
		{144444444.4, "¥144,444,444"},
		{144444444.5, "¥144,444,445"},
		{math.NaN(), "-"},
		{math.Inf(1), "-"},
	}

	for _, tt := range tests {
		got := formatYen(tt.input)
		if got != tt.want {
			t.Errorf("formatYen(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestContainsString(t *testing.T) {
	if !containsString(validFormats, "json") {
		t.Error("containsString(validFormats, json) = false, want true")
	}
	if containsString(validFormats, "xml") {
		t.Error("containsString(validFormats, xml) = true, want false")
	}
}

func TestValidatePositiveInt(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{1, false},
		{100, false},
		{0, true},
		{-5, true},
	}

	for _, tt := range tests {
		err := validatePositiveInt(tt.n, "limit")
		if (err != nil) != tt.wantErr {
			t.Errorf("validatePositiveInt(%d) error = %v, wantErr %v", tt.n, err, tt.wantErr)
		}
		if err != nil && !strings.Contains(err.Error(), "limit") {
			t.Errorf("error %q should name the flag", err)
		}
	}
}

func TestRender(t *testing.T) {
	original := outputFormat
	defer func() { outputFormat = original }()

	payload := map[string]int{"total_count": 3}
	table := func(w io.Writer) error {
		_, err := io.WriteString(w, "TABLE\n")
		return err
	}

	tests := []struct {
		format string
		want   string
	}{
		{"json", "\"total_count\": 3"},
		{"yaml", "total_count: 3"},
		{"table", "TABLE"},
		{"auto", "TABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			outputFormat = tt.format
			var buf bytes.Buffer
			if err := render(&buf, payload, table); err != nil {
				t.Fatalf("render() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("render(%s) = %q, want it to contain %q", tt.format, buf.String(), tt.want)
			}
		})
	}
}
