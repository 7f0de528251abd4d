package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var ingestTimeout time.Duration

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file|url>...",
	Short: "Add documents to the index",
	Long: `Ingest loads each document, splits it into overlapping chunks, embeds
them and saves the index. Documents already in the index are skipped.

Supported: .pdf, .html/.htm, .txt/.md and http(s) URLs.

Example:
  docanswer ingest report.pdf notes.md
  docanswer ingest https://example.com/whitepaper.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 30*time.Minute, "overall ingestion timeout")
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, _, logger, err := newAssistant()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), ingestTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "⚙️  Ingesting %d document(s)...\n", len(args))

	report, err := a.Ingest(ctx, args)
	if report != nil {
		for _, source := range report.Added {
			fmt.Fprintf(os.Stderr, "✓ %s\n", source)
		}
		for _, source := range report.Skipped {
			fmt.Fprintf(os.Stderr, "• Already ingested: %s\n", source)
		}
		for _, f := range report.Failed {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", f.Path, f.Err)
		}
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n  Added %d, skipped %d, failed %d (%d chunks) in %s\n",
		len(report.Added), len(report.Skipped), len(report.Failed), report.Chunks, report.Duration.Round(time.Millisecond))
	if verbose {
		fmt.Fprintf(os.Stderr, "  Index: %s\n", a.IndexPath())
	}

	if len(report.Failed) == len(args) {
		return fmt.Errorf("no documents could be ingested")
	}
	return nil
}
