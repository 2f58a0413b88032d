// ABOUTME: Wires configuration, storage, search and prediction into one service
// ABOUTME: Shared by the CLI commands, the HTTP API and the MCP server
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/budget-simulator/internal/config"
	"github.com/harper/budget-simulator/internal/core"
	"github.com/harper/budget-simulator/internal/dataset"
	"github.com/harper/budget-simulator/internal/embedding"
	"github.com/harper/budget-simulator/internal/llm"
	"github.com/harper/budget-simulator/internal/logging"
	"github.com/harper/budget-simulator/internal/models"
	"github.com/harper/budget-simulator/internal/storage"
	"github.com/harper/budget-simulator/internal/storage/sqlite"
)

// Options overrides collaborators normally derived from the config
type Options struct {
	Provider embedding.Provider
	Logger   *log.Logger
}

// Service owns the vector store, the analysis log and the predictor for one process
type Service struct {
	cfg       *config.Config
	store     *storage.Storage
	builder   *dataset.Builder
	engine    *core.SimilarityEngine
	predictor *core.BudgetPredictor
	logger    *log.Logger
}

// Info describes the search settings and the index held by this process
type Info struct {
	Loaded     bool            `json:"loaded" yaml:"loaded"`
	Version    string          `json:"version,omitempty" yaml:"version,omitempty"`
	Projects   int             `json:"projects" yaml:"projects"`
	Dimension  int             `json:"dimension" yaml:"dimension"`
	TopK       int             `json:"top_k" yaml:"top_k"`
	Threshold  float64         `json:"similarity_threshold" yaml:"similarity_threshold"`
	DataDir    string          `json:"data_dir" yaml:"data_dir"`
	IndexDir   string          `json:"index_dir" yaml:"index_dir"`
	SourcePath string          `json:"source_path" yaml:"source_path"`
	LastBuild  *dataset.Report `json:"last_build,omitempty" yaml:"last_build,omitempty"`
}

// Request is one analysis call plus the caller details kept in the audit log
type Request struct {
	IssueText      string
	SummaryText    string
	ProposedBudget *int64
	UserIP         string
	UserAgent      string
}

// New opens storage under cfg.DataDir and builds the search and prediction
// components. The index is loaded lazily on first use.
func New(cfg *config.Config, opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	builder := dataset.NewBuilder(cfg.VectorDimension, cfg.ReportingYear, logger)
	rebuild := storage.RebuildFunc(func(ctx context.Context) (*dataset.Result, error) {
		return builder.BuildFromFile(ctx, cfg.SourcePath)
	})

	store, err := storage.Open(storage.Options{
		DataDir:   cfg.DataDir,
		LogDBPath: cfg.LogDBPath,
		Rebuilder: rebuild,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	provider := opts.Provider
	if provider == nil {
		provider, err = NewProvider(cfg, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	engine := core.NewSimilarityEngine(store.Index, cfg.TopK)
	return &Service{
		cfg:       cfg,
		store:     store,
		builder:   builder,
		engine:    engine,
		predictor: core.NewBudgetPredictor(engine, provider, cfg.SimilarityThreshold, logger),
		logger:    logger,
	}, nil
}

// NewProvider returns the OpenAI client when a key is configured, otherwise
// the deterministic hash embedder.
func NewProvider(cfg *config.Config, logger *log.Logger) (embedding.Provider, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if !cfg.HasOpenAI() {
		logger.Warn("OPENAI_API_KEY not set, using deterministic hash embeddings")
		return embedding.NewHashEmbedder(cfg.VectorDimension), nil
	}

	client, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
		APIKey:            cfg.OpenAIKey,
		EmbeddingModel:    openai.EmbeddingModel(cfg.EmbeddingModel),
		Dimension:         cfg.VectorDimension,
		MaxRetries:        cfg.MaxRetries,
		RetryDelay:        cfg.RetryDelay,
		Timeout:           cfg.Timeout,
		RequestsPerMinute: cfg.EmbeddingRateLimit,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}
	return client, nil
}

// Config returns the configuration the service was built with
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Logs returns the analysis log store
func (s *Service) Logs() *sqlite.LogStore {
	return s.store.Logs
}

// Index returns the vector store
func (s *Service) Index() *storage.VectorStore {
	return s.store.Index
}

// Close releases the log database
func (s *Service) Close() error {
	return s.store.Close()
}

// Snapshot returns the current index, rebuilding it from the source if needed
func (s *Service) Snapshot(ctx context.Context) (*storage.Snapshot, error) {
	return s.store.Index.Load(ctx)
}

// Info reports the search settings and the in-memory index without loading
// it. LastBuild is only set when this process rebuilt the index on load.
func (s *Service) Info() Info {
	info := Info{
		TopK:       s.engine.TopK(),
		Threshold:  s.predictor.Threshold(),
		DataDir:    s.store.DataDir(),
		IndexDir:   s.store.Index.Dir(),
		SourcePath: s.cfg.SourcePath,
		LastBuild:  s.store.Index.LastReport(),
	}
	if snap := s.store.Index.Current(); snap != nil {
		info.Loaded = true
		info.Version = snap.Version
		info.Projects = snap.Len()
		info.Dimension = snap.Dimension()
	}
	return info
}

// Ingest builds a fresh index from source (cfg.SourcePath when empty) and
// makes it current.
func (s *Service) Ingest(ctx context.Context, source string) (*dataset.Report, error) {
	if source == "" {
		source = s.cfg.SourcePath
	}

	res, err := s.builder.BuildFromFile(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset: %w", err)
	}
	if err := s.store.Index.Save(res.Records, res.Matrix); err != nil {
		return nil, fmt.Errorf("failed to save index: %w", err)
	}
	return &res.Report, nil
}

// Analyze predicts a budget for the request and records the outcome in the
// analysis log. Log failures are reported but never change the prediction.
func (s *Service) Analyze(ctx context.Context, req Request) models.Prediction {
	start := time.Now()
	pred := s.predictor.Analyze(ctx, req.IssueText, req.SummaryText)
	elapsed := time.Since(start)

	entry := &models.AnalysisLog{
		IssueText:      req.IssueText,
		SummaryText:    req.SummaryText,
		ProposedBudget: req.ProposedBudget,
		CaseCount:      pred.CaseCount,
		SimilarCases:   pred.SimilarCases,
		UserIP:         req.UserIP,
		UserAgent:      req.UserAgent,
		ProcessingTime: elapsed.Seconds(),
		Status:         models.LogStatusSuccess,
	}
	if pred.Error {
		entry.Status = models.LogStatusError
		entry.ErrorMessage = pred.Message
	} else {
		predicted, average := pred.PredictedBudget, pred.AverageBudget
		entry.PredictedBudget = &predicted
		entry.AverageBudget = &average
	}

	id, err := s.store.Logs.Save(entry)
	if err != nil {
		s.logger.Error("failed to save analysis log", "err", err)
	} else {
		s.logger.Info("analysis logged", "log_id", id, "status", entry.Status, "cases", pred.CaseCount, "elapsed", elapsed)
	}
	return pred
}

// Projects lists up to limit projects in index order; limit <= 0 lists all.
// The second result is the total number of projects in the index.
func (s *Service) Projects(ctx context.Context, limit int) ([]models.ProjectSummary, int, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}

	n := snap.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.ProjectSummary, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, snap.Records[i].Summary(false))
	}
	return out, snap.Len(), nil
}

// Project returns the detail view of one project or storage.ErrNotFound
func (s *Service) Project(ctx context.Context, id int64) (models.ProjectSummary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return models.ProjectSummary{}, err
	}
	p, err := snap.ProjectByID(id)
	if err != nil {
		return models.ProjectSummary{}, err
	}
	return p.Summary(true), nil
}

// Stats summarises budgets and ratings of the current index
func (s *Service) Stats(ctx context.Context) (models.ProjectStats, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return models.ProjectStats{}, err
	}
	return snap.Stats(), nil
}
