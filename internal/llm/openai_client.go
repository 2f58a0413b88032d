// ABOUTME: OpenAI client producing query embeddings for budget analysis
// ABOUTME: Bounded retry with backoff, request rate limiting and a circuit breaker
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/harper/budget-simulator/internal/logging"
	"github.com/harper/budget-simulator/internal/util"
)

const (
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultDimension is the vector length of DefaultEmbeddingModel
	DefaultDimension = 1536
)

var (
	// ErrNoEmbedding is returned when the API answers without any vector
	ErrNoEmbedding = errors.New("no embeddings returned")
	// ErrDimension is returned when the API vector length differs from the index
	ErrDimension = errors.New("unexpected embedding dimension")
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey            string
	BaseURL           string // empty for the public API
	EmbeddingModel    openai.EmbeddingModel
	Dimension         int // 0 skips the length check
	MaxRetries        int
	RetryDelay        time.Duration
	Timeout           time.Duration // per attempt
	RequestsPerMinute int
	Logger            *log.Logger
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:            apiKey,
		EmbeddingModel:    DefaultEmbeddingModel,
		Dimension:         DefaultDimension,
		MaxRetries:        3,
		RetryDelay:        time.Second,
		Timeout:           30 * time.Second,
		RequestsPerMinute: 300,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	dimension      int
	maxRetries     int
	retryDelay     time.Duration
	timeout        time.Duration
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker
	logger         *log.Logger
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}

	model := config.EmbeddingModel
	if model == "" {
		model = DefaultEmbeddingModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rpm := config.RequestsPerMinute
	if rpm <= 0 {
		rpm = 300
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "OpenAIEmbeddings",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// client errors say nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(apiConfig),
		embeddingModel: model,
		dimension:      config.Dimension,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		timeout:        timeout,
		limiter:        rate.NewLimiter(rate.Limit(float64(rpm)/60.0), max(1, rpm/10)),
		breaker:        breaker,
		logger:         logger,
	}, nil
}

// Embed returns the embedding of text. Transient failures are retried with
// exponential backoff; client errors (4xx other than 429), an open breaker
// and context cancellation stop immediately.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	var vector []float64

	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return util.Permanent(fmt.Errorf("rate limiter: %w", err))
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.createEmbedding(ctx, text)
		})
		switch {
		case err == nil:
			vector = result.([]float64)
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return util.Permanent(fmt.Errorf("embedding service unavailable: %w", err))
		case isClientError(err), ctx.Err() != nil, errors.Is(err, ErrDimension):
			return util.Permanent(err)
		}

		c.logger.Debug("embedding attempt failed", "attempt", attempt+1, "err", err)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return vector, nil
}

func (c *OpenAIClient) createEmbedding(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrNoEmbedding
	}

	// Convert []float32 to []float64
	embedding32 := resp.Data[0].Embedding
	if c.dimension > 0 && len(embedding32) != c.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(embedding32), c.dimension)
	}
	embedding64 := make([]float64, len(embedding32))
	for i, v := range embedding32 {
		embedding64[i] = float64(v)
	}
	return embedding64, nil
}

// isClientError reports 4xx responses other than 429, which retrying cannot fix
func isClientError(err error) bool {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}
