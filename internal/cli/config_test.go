package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/docanswer/internal/model"
	"gopkg.in/yaml.v3"
)

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# docanswer Configuration File") {
		t.Errorf("missing header:\n%s", data)
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Index.ChunkSize != 1000 || cfg.Index.TopK != 5 {
		t.Errorf("unexpected index defaults: %+v", cfg.Index)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestRedact(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "sk-secret"

	out := redact(cfg)
	if out.LLM.APIKey == "sk-secret" {
		t.Error("API key should be redacted")
	}
	if cfg.LLM.APIKey != "sk-secret" {
		t.Error("redact must not modify the original")
	}
	if out.Embedding.APIKey != "" {
		t.Error("empty key should stay empty")
	}
}

func TestApplyProviderEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")

	cfg := model.DefaultConfig()
	if err := applyProviderEnv(cfg); err != nil {
		t.Fatalf("applyProviderEnv failed: %v", err)
	}
	if cfg.LLM.APIKey != "sk-env" || cfg.Embedding.APIKey != "sk-env" {
		t.Errorf("expected OpenAI key from env, got %q / %q", cfg.LLM.APIKey, cfg.Embedding.APIKey)
	}

	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "anthropic"
	if err := applyProviderEnv(cfg); err == nil {
		t.Error("expected error when ANTHROPIC_API_KEY is missing")
	}

	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.Embedding.Provider = "ollama"
	if err := applyProviderEnv(cfg); err != nil {
		t.Fatalf("applyProviderEnv failed: %v", err)
	}
	if cfg.LLM.BaseURL != "http://ollama:11434" || cfg.Embedding.BaseURL != "http://ollama:11434" {
		t.Errorf("expected Ollama base URL from env, got %q / %q", cfg.LLM.BaseURL, cfg.Embedding.BaseURL)
	}
}
