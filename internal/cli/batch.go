package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/docanswer/internal/pipeline"
	"github.com/ppiankov/docanswer/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	metricsFile  string
	batchRaw     bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Answer many questions from a file in parallel",
	Long: `Batch answers every question in a file concurrently:
- Read questions from input file (one per line, # comments allowed)
- Answer them with a configurable worker count
- Rate-limit model calls per provider
- Write a JSON and Markdown answer for each question

Example:
  docanswer batch questions.txt
  docanswer batch questions.txt --concurrency 8 --output-dir ./answers
  docanswer batch questions.txt --metrics-file docanswer.prom`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./docanswer-answers", "output directory for answers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")
	batchCmd.Flags().BoolVar(&batchRaw, "raw", false, "include the raw model reply in Markdown answers")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	a, cfg, logger, err := newAssistant()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = logger.Sync()
	}()

	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if batchRaw {
		cfg.Output.IncludeRaw = true
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  docanswer Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", a.ProviderName())
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(a, cfg.Concurrency.Workers,
		cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.BurstSize, logger)

	fmt.Fprintf(os.Stderr, "⚙️  Answering questions from %s...\n\n", file)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Question, result.Error)
			continue
		}

		slug := fmt.Sprintf("%03d-%s", result.Index+1, sanitizeFilename(result.Question))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Result, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Question, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Result, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Question, err)
			continue
		}

		successCount++
		renderer.RenderSummary(os.Stderr, result.Result)
	}

	if metricsFile != "" {
		if err := a.Recorder().WriteTextfile(metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write metrics: %v\n", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d questions\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	if metricsFile != "" {
		fmt.Fprintf(os.Stderr, "  Metrics:   %s\n", metricsFile)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename turns a question into a short, filesystem-safe slug
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "",
		"\"", "",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".-_")

	// Limit length
	if runes := []rune(s); len(runes) > 60 {
		s = string(runes[:60])
	}
	if s == "" {
		s = "question"
	}
	return s
}
