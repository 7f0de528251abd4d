package answer

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/docanswer/internal/model"
	"go.uber.org/zap"
)

// bracketPattern matches inline citations like [paper.pdf, p.3] or [paper.pdf, p 3]
var bracketPattern = regexp.MustCompile(`\[([^,\]]+),\s*p\.?\s*(\d+)\]`)

// Alias keys, in priority order
var (
	sourceKeys = []string{"source", "file", "filename"}
	pageKeys   = []string{"page", "p"}
)

type shape int

const (
	shapeAbsent shape = iota
	shapeMapping
	shapeText
	shapeSequence
	shapeOther
)

func (s shape) String() string {
	switch s {
	case shapeAbsent:
		return "absent"
	case shapeMapping:
		return "mapping"
	case shapeText:
		return "text"
	case shapeSequence:
		return "sequence"
	default:
		return "other"
	}
}

func classify(v any) shape {
	switch v.(type) {
	case nil:
		return shapeAbsent
	case map[string]any, model.CitationRecord:
		return shapeMapping
	case string:
		return shapeText
	case []any, []map[string]any, []string, []model.CitationRecord:
		return shapeSequence
	default:
		return shapeOther
	}
}

// Normalizer converts heterogeneous citation values into CitationRecords
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a normalizer; a nil logger discards output
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// NormalizeCitations is a convenience wrapper around a silent Normalizer
func NormalizeCitations(v any) []model.CitationRecord {
	out, _ := NewNormalizer(nil).Normalize(v)
	return out
}

// Normalize returns the citations found in v and the number of elements dropped.
// The returned slice is never nil.
func (n *Normalizer) Normalize(v any) ([]model.CitationRecord, int) {
	out := []model.CitationRecord{}
	dropped := 0

	switch classify(v) {
	case shapeAbsent:
	case shapeText:
		if v.(string) != "" {
			out, dropped = n.element(out, v)
		}
	case shapeMapping:
		out, dropped = n.element(out, v)
	case shapeSequence:
		for _, item := range sequenceItems(v) {
			var d int
			out, d = n.element(out, item)
			dropped += d
		}
	default:
		n.drop(v)
		dropped++
	}

	return out, dropped
}

// element appends the records for a single citation element
func (n *Normalizer) element(out []model.CitationRecord, item any) ([]model.CitationRecord, int) {
	switch classify(item) {
	case shapeMapping:
		return append(out, fromMapping(item)), 0
	case shapeText:
		return n.fromText(out, item.(string))
	default:
		n.drop(item)
		return out, 1
	}
}

func (n *Normalizer) drop(item any) {
	n.logger.Debug("dropping unrecognised citation element",
		zap.String("shape", classify(item).String()),
		zap.String("type", fmt.Sprintf("%T", item)),
	)
}

// fromText applies the text rules: bracketed citations, then embedded JSON,
// then the whole string as a source name.
func (n *Normalizer) fromText(out []model.CitationRecord, text string) ([]model.CitationRecord, int) {
	trimmed := strings.TrimSpace(text)

	if found := scanBracketed(text); len(found) > 0 {
		return append(out, found...), 0
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		switch t := decoded.(type) {
		case map[string]any:
			return append(out, fromMapping(t)), 0
		case []any:
			dropped := 0
			for _, el := range t {
				if m, ok := el.(map[string]any); ok {
					out = append(out, fromMapping(m))
					continue
				}
				dropped++
			}
			return out, dropped
		}
	}

	return append(out, model.NewCitation(trimmed, nil, "")), 0
}

// scanBracketed collects every [source, p.N] occurrence in order of appearance
func scanBracketed(text string) []model.CitationRecord {
	var out []model.CitationRecord
	for _, m := range bracketPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, model.NewCitation(strings.TrimSpace(m[1]), parsePageDigits(m[2]), ""))
	}
	return out
}

// fromMapping reads source, page and excerpt using the alias keys
func fromMapping(v any) model.CitationRecord {
	switch t := v.(type) {
	case model.CitationRecord:
		return t
	case map[string]any:
		rec := model.CitationRecord{}
		for _, key := range sourceKeys {
			if s, ok := scalarText(t[key]); ok && s != "" {
				rec.Source = &s
				break
			}
		}
		for _, key := range pageKeys {
			if t[key] != nil {
				rec.Page = pageValue(t[key])
				break
			}
		}
		if s, ok := t["excerpt"].(string); ok {
			rec.Excerpt = s
		}
		return rec
	}
	return model.CitationRecord{}
}

func sequenceItems(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []map[string]any:
		items := make([]any, len(t))
		for i := range t {
			items[i] = t[i]
		}
		return items
	case []string:
		items := make([]any, len(t))
		for i := range t {
			items[i] = t[i]
		}
		return items
	case []model.CitationRecord:
		items := make([]any, len(t))
		for i := range t {
			items[i] = t[i]
		}
		return items
	}
	return nil
}

// scalarText renders strings and numbers; containers are rejected
func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// pageValue converts integral numbers and numeric strings to a page number
func pageValue(v any) *int {
	switch t := v.(type) {
	case int:
		return &t
	case *int:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) && math.Abs(t) <= math.MaxInt32 {
			p := int(t)
			return &p
		}
	case json.Number:
		return parsePageDigits(t.String())
	case string:
		return parsePageDigits(strings.TrimSpace(t))
	}
	return nil
}

func parsePageDigits(s string) *int {
	p, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &p
}
