// Package pipeline wires retrieval, prompting, the model call and answer
// normalization into a single question-answering flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/docanswer/internal/answer"
	"github.com/ppiankov/docanswer/internal/cache"
	"github.com/ppiankov/docanswer/internal/index"
	"github.com/ppiankov/docanswer/internal/ingest"
	"github.com/ppiankov/docanswer/internal/llm"
	"github.com/ppiankov/docanswer/internal/metrics"
	"github.com/ppiankov/docanswer/internal/model"
	"go.uber.org/zap"
)

var (
	// ErrEmptyQuestion is returned when Ask receives a blank question
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrNoIndex is returned when no documents have been ingested yet
	ErrNoIndex = errors.New("no index available, ingest documents first")

	// ErrNoText is returned for documents that yield no extractable text
	ErrNoText = errors.New("no extractable text")
)

// Failure stages reported to the metrics recorder
const (
	stageRetrieve = "retrieve"
	stageEmbed    = "embed"
	stageComplete = "complete"
)

// Assistant answers questions over the ingested documents
type Assistant struct {
	provider  llm.Provider
	embedder  llm.Embedder
	splitter  *ingest.Splitter
	urlLoader *ingest.URLLoader
	processor *answer.Processor
	recorder  *metrics.Recorder
	closer    io.Closer
	config    *model.Config
	logger    *zap.Logger

	mu  sync.Mutex
	idx *index.Index
}

// Dependencies are the collaborators an Assistant is built from
type Dependencies struct {
	Provider  llm.Provider
	Embedder  llm.Embedder
	Index     *index.Index      // optional; loaded lazily from config when nil
	URLLoader *ingest.URLLoader // optional; URL arguments fail without one
	Recorder  *metrics.Recorder // optional
	Logger    *zap.Logger       // optional
}

// New builds an Assistant with providers, cache and loaders selected by cfg
func New(cfg *model.Config, logger *zap.Logger) (*Assistant, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM), logger)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	embedder, err := llm.NewEmbedder(llm.EmbedderConfigFromModel(cfg.Embedding, cfg.LLM), logger)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	if c != nil {
		embedder = llm.NewCachedEmbedder(embedder, c, cfg.Cache.TTL, logger)
	}

	var robots *ingest.RobotsChecker
	if cfg.Fetch.RespectRobots {
		robots = ingest.NewRobotsChecker(cfg.Fetch.UserAgent, cfg.Fetch.Timeout)
	}
	fetcher := ingest.NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent, cfg.Fetch.MaxBodyBytes)

	a, err := NewAssistant(cfg, Dependencies{
		Provider:  provider,
		Embedder:  embedder,
		URLLoader: ingest.NewURLLoader(fetcher, robots),
		Recorder:  metrics.NewRecorder(),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	if closer, ok := c.(io.Closer); ok {
		a.closer = closer
	}
	return a, nil
}

// NewAssistant builds an Assistant from explicit collaborators
func NewAssistant(cfg *model.Config, deps Dependencies) (*Assistant, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if deps.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	splitter, err := ingest.NewSplitter(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("create splitter: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Assistant{
		provider:  deps.Provider,
		embedder:  deps.Embedder,
		splitter:  splitter,
		urlLoader: deps.URLLoader,
		processor: answer.NewProcessor(logger.Named("answer")),
		recorder:  deps.Recorder,
		config:    cfg,
		logger:    logger,
		idx:       deps.Index,
	}, nil
}

// Recorder returns the metrics recorder, which may be nil
func (a *Assistant) Recorder() *metrics.Recorder {
	return a.recorder
}

// ProviderName identifies the chat provider, used as the rate limiter key
func (a *Assistant) ProviderName() string {
	return a.provider.Name()
}

// Close releases the embedding cache connection, if any
func (a *Assistant) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// QueryResult is one answered question
type QueryResult struct {
	ID       string                 `json:"id"`
	Question string                 `json:"question"`
	Record   model.AnswerRecord     `json:"record"`
	Raw      string                 `json:"raw"`
	Chunks   []model.RetrievedChunk `json:"chunks"`
	Mode     answer.Mode            `json:"mode"`
	Strategy string                 `json:"strategy,omitempty"`
	Dropped  int                    `json:"dropped"`
	Duration time.Duration          `json:"duration"`
}

// Ask retrieves context for question, queries the model and normalizes its reply
func (a *Assistant) Ask(ctx context.Context, question string) (*QueryResult, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	idx, err := a.index()
	if err != nil {
		a.recorder.Failure(stageRetrieve)
		return nil, err
	}
	if idx.Len() == 0 {
		a.recorder.Failure(stageRetrieve)
		return nil, ErrNoIndex
	}

	vectors, err := a.embedder.Embed(ctx, []string{question})
	if err != nil {
		a.recorder.Failure(stageEmbed)
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		a.recorder.Failure(stageEmbed)
		return nil, fmt.Errorf("embed question: got %d vectors", len(vectors))
	}

	hits, err := a.retrieve(idx, vectors[0])
	if err != nil {
		a.recorder.Failure(stageRetrieve)
		return nil, fmt.Errorf("search index: %w", err)
	}
	chunks := index.Chunks(hits)

	a.logger.Debug("retrieved context",
		zap.Int("chunks", len(chunks)),
		zap.Bool("mmr", a.config.Index.MMREnabled),
	)

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System: llm.SystemContextPrompt,
		Prompt: llm.BuildPrompt(question, chunks),
	})
	if err != nil {
		a.recorder.Failure(stageComplete)
		a.logger.Warn("completion failed", zap.String("provider", a.provider.Name()), zap.Error(err))
		return nil, fmt.Errorf("complete: %w", err)
	}

	res := a.processor.Process(resp.Text, chunks)
	elapsed := time.Since(start)
	a.recorder.Observe(res, elapsed)

	return &QueryResult{
		ID:       uuid.NewString(),
		Question: question,
		Record:   res.Record,
		Raw:      resp.Text,
		Chunks:   chunks,
		Mode:     res.Mode,
		Strategy: res.Strategy,
		Dropped:  res.Dropped,
		Duration: elapsed,
	}, nil
}

func (a *Assistant) retrieve(idx *index.Index, query []float32) ([]index.Hit, error) {
	k := a.config.Index.TopK
	if a.config.Index.MMREnabled {
		return idx.SearchMMR(query, k, a.config.Index.FetchK, a.config.Index.MMRLambda)
	}
	return idx.Search(query, k)
}

// IndexPath is where the index is persisted
func (a *Assistant) IndexPath() string {
	return filepath.Join(a.config.Index.Dir, index.FileName)
}

// index loads the persisted index on first use
func (a *Assistant) index() (*index.Index, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.idx != nil {
		return a.idx, nil
	}

	idx, found, err := index.Load(a.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if !found {
		a.logger.Debug("no index on disk", zap.String("path", a.IndexPath()))
	}
	a.idx = idx
	return idx, nil
}

// IngestFailure is a document that could not be ingested
type IngestFailure struct {
	Path string
	Err  error
}

// IngestReport summarizes one Ingest call
type IngestReport struct {
	Added    []string
	Skipped  []string
	Failed   []IngestFailure
	Chunks   int
	Duration time.Duration
}

// Ingest loads, splits and embeds each document and persists the index.
// Documents whose source name is already indexed are skipped; per-document
// failures are collected in the report rather than aborting the run.
func (a *Assistant) Ingest(ctx context.Context, paths []string) (*IngestReport, error) {
	start := time.Now()
	report := &IngestReport{}

	idx, err := a.index()
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		source := sourceName(path)
		if idx.HasSource(source) {
			a.logger.Info("already ingested", zap.String("source", source))
			report.Skipped = append(report.Skipped, source)
			continue
		}

		n, err := a.ingestOne(ctx, idx, path)
		if err != nil {
			a.logger.Warn("ingest failed", zap.String("path", path), zap.Error(err))
			report.Failed = append(report.Failed, IngestFailure{Path: path, Err: err})
			continue
		}
		report.Added = append(report.Added, source)
		report.Chunks += n
	}

	if len(report.Added) > 0 {
		if err := idx.Save(a.IndexPath()); err != nil {
			return report, fmt.Errorf("save index: %w", err)
		}
	}

	report.Duration = time.Since(start)
	a.logger.Info("ingest complete",
		zap.Int("added", len(report.Added)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("chunks", report.Chunks),
	)
	return report, nil
}

func (a *Assistant) ingestOne(ctx context.Context, idx *index.Index, path string) (int, error) {
	pages, err := a.load(ctx, path)
	if err != nil {
		return 0, err
	}

	chunks := a.splitter.SplitPages(pages)
	if len(chunks) == 0 {
		return 0, ErrNoText
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := a.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]index.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = index.Entry{
			Source:  c.Source,
			Page:    c.Page,
			Content: c.Content,
			Vector:  vectors[i],
		}
	}
	if err := idx.Add(entries...); err != nil {
		return 0, fmt.Errorf("add to index: %w", err)
	}
	return len(entries), nil
}

func (a *Assistant) load(ctx context.Context, path string) ([]ingest.Page, error) {
	if ingest.IsURL(path) {
		if a.urlLoader == nil {
			return nil, fmt.Errorf("%s: URL ingestion is not configured", path)
		}
		return a.urlLoader.Load(ctx, path)
	}

	loader, err := ingest.LoaderFor(path)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, path)
}

func sourceName(path string) string {
	if ingest.IsURL(path) {
		return ingest.SourceFromURL(path)
	}
	return ingest.SourceName(path)
}
