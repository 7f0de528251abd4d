package model

import "time"

// Config is the complete docanswer configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Index       IndexConfig       `yaml:"index" mapstructure:"index"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// LLMConfig selects the chat model used to answer questions
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// EmbeddingConfig selects the embedding model used for indexing and retrieval
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// IndexConfig controls chunking and retrieval
type IndexConfig struct {
	Dir          string  `yaml:"dir" mapstructure:"dir"`
	ChunkSize    int     `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap int     `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
	TopK         int     `yaml:"top_k" mapstructure:"top_k"`
	MMREnabled   bool    `yaml:"mmr_enabled" mapstructure:"mmr_enabled"`
	MMRLambda    float64 `yaml:"mmr_lambda" mapstructure:"mmr_lambda"`
	FetchK       int     `yaml:"fetch_k" mapstructure:"fetch_k"`
}

// CacheConfig controls the embedding cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend   string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered, redis
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
	RedisAddr string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
}

// FetchConfig controls ingestion of documents by URL
type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose        bool   `yaml:"verbose" mapstructure:"verbose"`
	Format         string `yaml:"format" mapstructure:"format"` // json, markdown
	ExcerptDisplay int    `yaml:"excerpt_display" mapstructure:"excerpt_display"`
	RawDisplay     int    `yaml:"raw_display" mapstructure:"raw_display"`
	IncludeRaw     bool   `yaml:"include_raw" mapstructure:"include_raw"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     60,
			MaxTokens:   1024,
			Temperature: 0,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			BatchSize: 64,
			Timeout:   60,
		},
		Index: IndexConfig{
			Dir:          defaultDataDir("index"),
			ChunkSize:    1000,
			ChunkOverlap: 200,
			TopK:         5,
			MMREnabled:   true,
			MMRLambda:    0.5,
			FetchK:       20,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "layered",
			Dir:     defaultDataDir("cache"),
			TTL:     7 * 24 * time.Hour,
		},
		Fetch: FetchConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "docanswer/1.0 (+https://github.com/ppiankov/docanswer)",
			MaxBodyBytes:  50 << 20,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Output: OutputConfig{
			Format:         "markdown",
			ExcerptDisplay: 300,
			RawDisplay:     4000,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}
