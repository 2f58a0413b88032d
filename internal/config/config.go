// ABOUTME: Centralized configuration for the budget simulator
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Config holds all configuration for the budget simulator
type Config struct {
	// OpenAI settings
	OpenAIKey          string
	EmbeddingModel     string
	Timeout            time.Duration
	MaxRetries         int
	RetryDelay         time.Duration
	EmbeddingRateLimit int // requests per minute

	// Prediction settings
	VectorDimension     int
	TopK                int
	SimilarityThreshold float64

	// Ingestion settings
	DataDir       string
	SourcePath    string
	ReportingYear int

	// Analysis log settings
	LogDBPath string

	// HTTP settings
	Host        string
	Port        int
	CORSOrigins []string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	dataDir := getEnv("BUDGET_DATA_DIR", DefaultDataDir())

	cfg := &Config{
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		EmbeddingModel:      getEnv("BUDGET_EMBEDDING_MODEL", "text-embedding-3-small"),
		Timeout:             getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:          getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:          getEnvDuration("OPENAI_RETRY_DELAY", time.Second),
		EmbeddingRateLimit:  getEnvInt("OPENAI_RATE_LIMIT_RPM", 300),
		VectorDimension:     getEnvInt("VECTOR_DIMENSION", 1536),
		TopK:                getEnvInt("BUDGET_TOP_K", 10),
		SimilarityThreshold: getEnvFloat("BUDGET_SIMILARITY_THRESHOLD", 0.1),
		DataDir:             dataDir,
		SourcePath:          getEnv("BUDGET_SOURCE_PATH", filepath.Join(dataDir, "final_2024.csv")),
		ReportingYear:       getEnvInt("BUDGET_REPORTING_YEAR", 2024),
		LogDBPath:           getEnv("BUDGET_LOG_DB", filepath.Join(dataDir, "policy_analysis.db")),
		Host:                getEnv("BUDGET_HOST", "0.0.0.0"),
		Port:                getEnvInt("BUDGET_PORT", 5000),
		CORSOrigins:         getEnvList("BUDGET_CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:5000", "http://localhost:5000"}),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	return cfg, cfg.Validate()
}

// DefaultDataDir returns the XDG data directory for index artifacts and logs
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "budget-simulator")
}

func (c *Config) Validate() error {
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("BUDGET_SIMILARITY_THRESHOLD must be -1 to 1, got %f", c.SimilarityThreshold)
	}
	if c.TopK < 1 {
		return fmt.Errorf("BUDGET_TOP_K must be positive, got %d", c.TopK)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.VectorDimension < 1 {
		return fmt.Errorf("VECTOR_DIMENSION must be positive, got %d", c.VectorDimension)
	}
	if c.EmbeddingRateLimit < 1 {
		return fmt.Errorf("OPENAI_RATE_LIMIT_RPM must be positive, got %d", c.EmbeddingRateLimit)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("BUDGET_PORT must be 1-65535, got %d", c.Port)
	}
	return nil
}

// Addr returns host:port for the HTTP listener
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HasOpenAI reports whether a real embedding provider is configured
func (c *Config) HasOpenAI() bool {
	return c.OpenAIKey != "" && c.OpenAIKey != "your-api-key-here"
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
