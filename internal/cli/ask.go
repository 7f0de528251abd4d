package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/docanswer/internal/model"
	"github.com/ppiankov/docanswer/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	askJSON    string
	askMD      string
	askRaw     bool
	askFormat  string
	askTimeout time.Duration
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the ingested documents",
	Long: `Ask retrieves the passages most relevant to the question, asks the
model to answer from them only, and prints the answer with its citations.

Example:
  docanswer ask "When was the treaty signed?"
  docanswer ask "What drove revenue growth?" --json answer.json --md answer.md
  docanswer ask "Who signed it?" --format json --raw`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askJSON, "json", "", "also write the answer as JSON to this path")
	askCmd.Flags().StringVar(&askMD, "md", "", "also write the answer as Markdown to this path")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "include the raw model reply (debug)")
	askCmd.Flags().StringVar(&askFormat, "format", "", "stdout format: markdown or json (default from config)")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall question timeout")
}

// newAssistant loads configuration and builds the assistant and its logger
func newAssistant() (*pipeline.Assistant, *model.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	a, err := pipeline.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("create assistant: %w", err)
	}
	return a, cfg, logger, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	a, cfg, logger, err := newAssistant()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = logger.Sync()
	}()

	if askRaw {
		cfg.Output.IncludeRaw = true
	}
	if askFormat != "" {
		cfg.Output.Format = askFormat
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Question: %s\n", question)
		fmt.Fprintf(os.Stderr, "Provider: %s\n\n", a.ProviderName())
	}

	res, err := a.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output)

	switch strings.ToLower(cfg.Output.Format) {
	case "json":
		err = renderer.WriteJSON(os.Stdout, res)
	case "", "markdown", "md":
		err = renderer.WriteMarkdown(os.Stdout, res)
	default:
		return fmt.Errorf("unknown output format: %s (supported: markdown, json)", cfg.Output.Format)
	}
	if err != nil {
		return fmt.Errorf("render answer: %w", err)
	}

	if askJSON != "" {
		if err := renderer.RenderJSON(res, askJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", askJSON)
		}
	}
	if askMD != "" {
		if err := renderer.RenderMarkdown(res, askMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", askMD)
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr)
		renderer.RenderSummary(os.Stderr, res)
	}
	return nil
}
