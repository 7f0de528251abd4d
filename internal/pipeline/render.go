package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/docanswer/internal/model"
)

// Renderer renders answers to JSON and Markdown
type Renderer struct {
	excerptLimit int
	rawLimit     int
	includeRaw   bool
}

// NewRenderer creates a renderer using the display limits in cfg
func NewRenderer(cfg model.OutputConfig) *Renderer {
	r := &Renderer{
		excerptLimit: cfg.ExcerptDisplay,
		rawLimit:     cfg.RawDisplay,
		includeRaw:   cfg.IncludeRaw,
	}
	if r.excerptLimit <= 0 {
		r.excerptLimit = 300
	}
	if r.rawLimit <= 0 {
		r.rawLimit = 4000
	}
	return r
}

// WriteJSON writes the answer record in its wire shape
func (r *Renderer) WriteJSON(w io.Writer, res *QueryResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res.Record); err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	return nil
}

// WriteMarkdown writes the answer, its citations and optionally the raw reply
func (r *Renderer) WriteMarkdown(w io.Writer, res *QueryResult) error {
	var b strings.Builder
	rec := res.Record

	b.WriteString("### Answer\n\n")
	b.WriteString(strings.TrimSpace(rec.Answer))
	b.WriteString("\n\n")

	if rec.FollowUp != nil {
		fmt.Fprintf(&b, "**Follow-up:** %s\n\n", strings.TrimSpace(*rec.FollowUp))
	}

	b.WriteString("### Citations\n\n")
	if len(rec.Citations) == 0 {
		b.WriteString("_No citations returned._\n")
	}
	for _, c := range rec.Citations {
		b.WriteString(r.citationLine(c))
		b.WriteString("\n")
	}

	if r.includeRaw {
		b.WriteString("\n#### Raw model output\n\n```\n")
		b.WriteString(truncate(res.Raw, r.rawLimit))
		b.WriteString("\n```\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) citationLine(c model.CitationRecord) string {
	src := c.SourceName()
	if src == "" {
		src = "unknown"
	}

	line := fmt.Sprintf("- **%s**", src)
	if c.Page != nil {
		line += fmt.Sprintf(" (p.%d)", *c.Page)
	}

	excerpt := strings.Join(strings.Fields(c.Excerpt), " ")
	if excerpt == "" {
		return line
	}
	short := truncate(excerpt, r.excerptLimit)
	if short != excerpt {
		short += "..."
	}
	return line + " : " + short
}

// RenderJSON writes the JSON rendering to path
func (r *Renderer) RenderJSON(res *QueryResult, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, res) })
}

// RenderMarkdown writes the Markdown rendering to path
func (r *Renderer) RenderMarkdown(res *QueryResult, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteMarkdown(w, res) })
}

// RenderSummary prints a one-line status for a finished question
func (r *Renderer) RenderSummary(w io.Writer, res *QueryResult) {
	status := "✓"
	if !res.Record.Found {
		status = "?"
	}
	how := string(res.Mode)
	if res.Strategy != "" {
		how += "/" + res.Strategy
	}
	_, _ = fmt.Fprintf(w, "%s %s (%s, %d citations, %s)\n",
		status, res.Question, how, len(res.Record.Citations), res.Duration.Round(time.Millisecond))
}

func writeFile(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close file: %w", closeErr)
		}
	}()

	return render(f)
}

// truncate caps s at limit runes
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
