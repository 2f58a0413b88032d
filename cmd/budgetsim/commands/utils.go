// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Service setup from env, output rendering and display formatting
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harper/budget-simulator/internal/config"
	"github.com/harper/budget-simulator/internal/logging"
	"github.com/harper/budget-simulator/internal/service"
)

// loadConfig reads .env (if present) and the environment
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger honours --verbose and --quiet over LOG_LEVEL
func newLogger(cmd *cobra.Command, cfg *config.Config) *log.Logger {
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(cmd.ErrOrStderr(), level, cfg.LogFormat)
}

// openService loads config and builds the service. Callers must Close it.
func openService(cmd *cobra.Command) (*service.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	svc, err := service.New(cfg, service.Options{Logger: newLogger(cmd, cfg)})
	if err != nil {
		return nil, fmt.Errorf("initializing service: %w", err)
	}
	return svc, nil
}

// render writes v as JSON or YAML when asked, otherwise calls table
func render(w io.Writer, v interface{}, table func(io.Writer) error) error {
	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return table(w)
	}
}

// formatYen renders an amount as ¥1,234,567
func formatYen(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return "¥" + humanize.Comma(int64(math.Round(v)))
}

// truncate shortens a string to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// containsString checks if a slice contains a string
func containsString(slice []string, item string) bool {
	return slices.Contains(slice, item)
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
