package answer

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ppiankov/docanswer/internal/model"
)

var (
	// filename.pdf p.3, filename.pdf, p 3, filename.pdf:3
	loosePagePattern = regexp.MustCompile(`(?i)([^\s,:;\[\]()]+\.pdf)(?:[\s,;:]{0,4}p\.?\s*|\s*:\s*)(\d+)`)

	barePDFPattern = regexp.MustCompile(`([A-Za-z0-9_\-./]+\.pdf)`)
)

// Strategy names reported in Result.Strategy
const (
	StrategyBracketed    = "bracketed"
	StrategyEmbeddedJSON = "embedded_json"
	StrategyLoosePage    = "loose_page"
	StrategyBarePDF      = "bare_pdf"
	StrategyNone         = "none"
)

// extractStrategy recovers citations from raw text; an empty result means "try the next one"
type extractStrategy struct {
	name    string
	extract func(raw string) []model.CitationRecord
}

var fallbackStrategies = []extractStrategy{
	{name: StrategyBracketed, extract: scanBracketed},
	{name: StrategyEmbeddedJSON, extract: embeddedJSONCitations},
	{name: StrategyLoosePage, extract: loosePageCitations},
	{name: StrategyBarePDF, extract: barePDFCitations},
}

// FallbackExtract recovers a best-effort answer from a reply that failed schema parsing.
// It never fails; the strategy name that produced citations is returned, or StrategyNone.
func FallbackExtract(raw string) (Fields, string) {
	citations := []model.CitationRecord{}
	strategy := StrategyNone
	for _, s := range fallbackStrategies {
		if found := s.extract(raw); len(found) > 0 {
			citations = found
			strategy = s.name
			break
		}
	}

	return Fields{
		Answer:    firstParagraph(raw),
		Found:     len(citations) > 0,
		Citations: citations,
		FollowUp:  nil,
	}, strategy
}

// firstParagraph returns the first non-empty blank-line-delimited block, or the trimmed text
func firstParagraph(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	for _, part := range strings.Split(text, "\n\n") {
		if p := strings.TrimSpace(part); p != "" {
			return p
		}
	}
	return strings.TrimSpace(raw)
}

func embeddedJSONCitations(raw string) []model.CitationRecord {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}
	value, ok := doc["citations"]
	if !ok {
		return nil
	}

	var items []any
	switch t := value.(type) {
	case map[string]any:
		items = []any{t}
	case []any:
		items = t
	}

	var out []model.CitationRecord
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, fromMapping(m))
		}
	}
	return out
}

func loosePageCitations(raw string) []model.CitationRecord {
	var out []model.CitationRecord
	for _, m := range loosePagePattern.FindAllStringSubmatch(raw, -1) {
		out = append(out, model.NewCitation(strings.TrimSpace(m[1]), parsePageDigits(m[2]), ""))
	}
	return out
}

// barePDFCitations is the last resort: any *.pdf token, page unknown
func barePDFCitations(raw string) []model.CitationRecord {
	var out []model.CitationRecord
	for _, token := range barePDFPattern.FindAllString(raw, -1) {
		out = append(out, model.NewCitation(strings.TrimSpace(token), nil, ""))
	}
	return out
}
