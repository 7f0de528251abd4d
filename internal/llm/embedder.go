package llm

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/docanswer/internal/cache"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Embedder turns texts into vectors; the output has one vector per input, in order
type Embedder interface {
	Name() string
	Model() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderConfig holds embedding provider configuration
type EmbedderConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	BatchSize  int
	Timeout    int // seconds
	HTTPProxy  string
	HTTPSProxy string
}

func (c EmbedderConfig) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return 64
}

// embedBatched splits texts into batches and concatenates the results
func embedBatched(ctx context.Context, texts []string, size int, fn func(context.Context, []string) ([][]float32, error)) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		vecs, err := fn(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", end-start, len(vecs))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// OpenAIEmbedder embeds through the OpenAI embeddings endpoint
type OpenAIEmbedder struct {
	client *openai.Client
	config EmbedderConfig
	logger *zap.Logger
}

// NewOpenAIEmbedder creates a new OpenAI embedder
func NewOpenAIEmbedder(config EmbedderConfig, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Model == "" {
		config.Model = string(openai.SmallEmbedding3)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(config.Timeout, 60*time.Second, config.HTTPProxy, config.HTTPSProxy)

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger.Named("openai-embed"),
	}, nil
}

// Name returns the provider name
func (e *OpenAIEmbedder) Name() string { return "openai" }

// Model returns the embedding model
func (e *OpenAIEmbedder) Model() string { return e.config.Model }

// Embed returns one vector per text
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedBatched(ctx, texts, e.config.batchSize(), e.embedOnce)
}

func (e *OpenAIEmbedder) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.config.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("OpenAI embeddings: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("OpenAI embeddings: missing vector %d: %w", i, ErrNoResponse)
		}
	}

	e.logger.Debug("embedded batch", zap.Int("texts", len(texts)), zap.Int("tokens", resp.Usage.TotalTokens))
	return out, nil
}

// OllamaEmbedder embeds through a local Ollama server
type OllamaEmbedder struct {
	baseURL    string
	httpClient *http.Client
	config     EmbedderConfig
	logger     *zap.Logger
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates a new Ollama embedder
func NewOllamaEmbedder(config EmbedderConfig, logger *zap.Logger) (*OllamaEmbedder, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama embedding model must be specified (e.g., nomic-embed-text)")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}

	return &OllamaEmbedder{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(config.Timeout, 120*time.Second, config.HTTPProxy, config.HTTPSProxy),
		config:     config,
		logger:     logger.Named("ollama-embed"),
	}, nil
}

// Name returns the provider name
func (e *OllamaEmbedder) Name() string { return "ollama" }

// Model returns the embedding model
func (e *OllamaEmbedder) Model() string { return e.config.Model }

// Embed returns one vector per text
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedBatched(ctx, texts, e.config.batchSize(), func(ctx context.Context, batch []string) ([][]float32, error) {
		var resp ollamaEmbedResponse
		if err := postJSON(ctx, e.httpClient, e.baseURL+"/api/embed", ollamaEmbedRequest{Model: e.config.Model, Input: batch}, &resp); err != nil {
			return nil, fmt.Errorf("ollama embed error: %w", err)
		}
		return resp.Embeddings, nil
	})
}

// CachedEmbedder serves repeated texts from a cache and only embeds misses
type CachedEmbedder struct {
	inner  Embedder
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedEmbedder wraps inner; a nil cache disables caching
func NewCachedEmbedder(inner Embedder, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{inner: inner, cache: c, ttl: ttl, logger: logger.Named("embed-cache")}
}

// Name returns the wrapped provider name
func (e *CachedEmbedder) Name() string { return e.inner.Name() }

// Model returns the wrapped embedding model
func (e *CachedEmbedder) Model() string { return e.inner.Model() }

// Embed returns one vector per text, calling the wrapped embedder only for cache misses
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.cache == nil {
		return e.inner.Embed(ctx, texts)
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, t := range texts {
		if data, ok := e.cache.Get(e.key(t)); ok {
			if vec, ok := decodeVector(data); ok {
				out[i] = vec
				continue
			}
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}

	e.logger.Debug("embedding cache", zap.Int("hits", len(texts)-len(missTexts)), zap.Int("misses", len(missTexts)))

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(missTexts), len(vecs))
	}

	for j, vec := range vecs {
		out[missIdx[j]] = vec
		if err := e.cache.Set(e.key(missTexts[j]), encodeVector(vec), e.ttl); err != nil {
			e.logger.Warn("failed to cache embedding", zap.Error(err))
		}
	}

	return out, nil
}

func (e *CachedEmbedder) key(text string) string {
	return cache.CacheKey("embed", e.inner.Name(), e.inner.Model(), text)
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, bool) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, true
}
