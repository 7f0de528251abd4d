package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/docanswer/internal/model"
	"go.uber.org/zap"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config, logger *zap.Logger) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config, logger)

	case "anthropic", "claude":
		return NewAnthropicProvider(config, logger)

	case "ollama":
		return NewOllamaProvider(config, logger)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (set llm.provider)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// NewEmbedder creates a new embedder based on configuration
func NewEmbedder(config EmbedderConfig, logger *zap.Logger) (Embedder, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "":
		return NewOpenAIEmbedder(config, logger)

	case "ollama":
		return NewOllamaEmbedder(config, logger)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:    modelConfig.Provider,
		Model:       modelConfig.Model,
		APIKey:      modelConfig.APIKey,
		BaseURL:     modelConfig.BaseURL,
		Timeout:     modelConfig.Timeout,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		HTTPProxy:   modelConfig.HTTPProxy,
		HTTPSProxy:  modelConfig.HTTPSProxy,
	}
}

// EmbedderConfigFromModel converts model.EmbeddingConfig to llm.EmbedderConfig.
// Unset credentials and proxies are inherited from the chat model settings when the providers match.
func EmbedderConfigFromModel(embed model.EmbeddingConfig, chat model.LLMConfig) EmbedderConfig {
	cfg := EmbedderConfig{
		Provider:   embed.Provider,
		Model:      embed.Model,
		APIKey:     embed.APIKey,
		BaseURL:    embed.BaseURL,
		BatchSize:  embed.BatchSize,
		Timeout:    embed.Timeout,
		HTTPProxy:  chat.HTTPProxy,
		HTTPSProxy: chat.HTTPSProxy,
	}
	if strings.EqualFold(embed.Provider, chat.Provider) {
		if cfg.APIKey == "" {
			cfg.APIKey = chat.APIKey
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = chat.BaseURL
		}
	}
	return cfg
}
