package llm

import (
	"testing"

	"github.com/ppiankov/docanswer/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantErr  bool
	}{
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{"claude alias", Config{Provider: "Claude", APIKey: "k"}, "anthropic", false},
		{"ollama", Config{Provider: "ollama"}, "ollama", false},
		{"openai without key", Config{Provider: "openai"}, "", true},
		{"unset", Config{}, "", true},
		{"unknown", Config{Provider: "gemini"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Expected %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestNewEmbedder(t *testing.T) {
	if _, err := NewEmbedder(EmbedderConfig{Provider: "ollama"}, nil); err == nil {
		t.Error("Expected error for ollama without model")
	}
	e, err := NewEmbedder(EmbedderConfig{Provider: "ollama", Model: "nomic-embed-text"}, nil)
	if err != nil || e.Name() != "ollama" {
		t.Errorf("Expected ollama embedder, got %v, %v", e, err)
	}
	if _, err := NewEmbedder(EmbedderConfig{Provider: "cohere"}, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "secret"

	c := ConfigFromModel(cfg.LLM)
	if c.Provider != "openai" || c.APIKey != "secret" || c.MaxTokens != cfg.LLM.MaxTokens {
		t.Errorf("Unexpected conversion: %+v", c)
	}

	e := EmbedderConfigFromModel(cfg.Embedding, cfg.LLM)
	if e.APIKey != "secret" {
		t.Error("Expected embedding config to inherit the chat API key for the same provider")
	}

	cfg.Embedding.Provider = "ollama"
	e = EmbedderConfigFromModel(cfg.Embedding, cfg.LLM)
	if e.APIKey != "" {
		t.Error("Expected no key inheritance across providers")
	}
}
