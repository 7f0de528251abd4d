package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/docanswer/internal/logging"
	"github.com/ppiankov/docanswer/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile     string
	verbose     bool
	llmProvider string
	llmModel    string
	indexDir    string
)

// version is overridden at build time with -ldflags "-X .../cli.version=..."
var version = "v0.1.0"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "docanswer",
	Short: "docanswer - cited answers from your own documents",
	Long: `docanswer answers questions using only the documents you ingest.

Every answer carries citations back to a document and page, recovered from
the model's reply even when it ignores the requested output format.

Ingest PDF, HTML, text or Markdown files (or http(s) URLs), then ask.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of docanswer.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docanswer %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.docanswer/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	rootCmd.PersistentFlags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	rootCmd.PersistentFlags().StringVar(&indexDir, "index-dir", "", "directory holding the document index")

	rootCmd.AddCommand(versionCmd)
}

// envKeys may be overridden with DOCANSWER_<SECTION>_<KEY>
var envKeys = []string{
	"llm.provider", "llm.model", "llm.api_key", "llm.base_url", "llm.timeout", "llm.max_tokens",
	"embedding.provider", "embedding.model", "embedding.api_key", "embedding.base_url",
	"index.dir", "index.top_k", "index.mmr_enabled",
	"cache.enabled", "cache.backend", "cache.dir", "cache.redis_addr",
	"logging.level", "logging.format",
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// A missing .env is normal
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".docanswer"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match DOCANSWER_*
	viper.SetEnvPrefix("DOCANSWER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers defaults, config file, environment and flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		if llmModel == "" && !viper.IsSet("llm.model") {
			// The default model belongs to the default provider
			cfg.LLM.Model = ""
		}
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if indexDir != "" {
		cfg.Index.Dir = indexDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}

	if err := applyProviderEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyProviderEnv fills API keys and base URLs from the providers' usual variables
func applyProviderEnv(cfg *model.Config) error {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" && cfg.LLM.BaseURL == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	switch strings.ToLower(cfg.Embedding.Provider) {
	case "openai":
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = baseURL
		}
	}
	return nil
}

// newLogger builds the logger described by cfg
func newLogger(cfg *model.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}
