package answer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaParse signals that a reply does not follow the announced output format.
// It is an expected outcome and triggers fallback extraction.
var ErrSchemaParse = errors.New("reply does not match answer schema")

// ResponseField is one named field of the structured answer format
type ResponseField struct {
	Name        string
	Description string
}

// ResponseFields is the output schema announced to the model
var ResponseFields = []ResponseField{
	{Name: "answer", Description: "Concise, direct answer."},
	{Name: "found", Description: "Boolean: true if answer is found in the docs."},
	{Name: "citations", Description: "List of citations: [{source, page, excerpt, score(optional)}]."},
	{Name: "follow_up", Description: "Optional follow-up question or 'None'."},
}

// Fields is an answer as produced by schema parsing or fallback extraction.
// Citations is left in whatever shape the producer emitted.
type Fields struct {
	Answer    string
	Found     bool
	Citations any
	FollowUp  *string
}

// (?s) so the fenced body may span lines; greedy so fences quoted inside
// string values do not end the body early
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*)```")

// FormatInstructions returns the prompt fragment describing the output format.
// It must stay in sync with ParseStructured.
func FormatInstructions() string {
	var b strings.Builder
	b.WriteString("The output should be a markdown code snippet formatted in the following schema, ")
	b.WriteString("including the leading and trailing \"```json\" and \"```\":\n\n")
	b.WriteString("```json\n{\n")
	for _, f := range ResponseFields {
		fmt.Fprintf(&b, "\t%q: string  // %s\n", f.Name, f.Description)
	}
	b.WriteString("}\n```")
	return b.String()
}

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	required := make([]string, len(ResponseFields))
	props := make(map[string]any, len(ResponseFields))
	for i, f := range ResponseFields {
		required[i] = f.Name
		props[f.Name] = map[string]any{"description": f.Description}
	}
	doc := map[string]any{
		"type":       "object",
		"required":   required,
		"properties": props,
	}
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
})

// ParseStructured parses a reply that follows FormatInstructions.
// Any other shape returns an error wrapping ErrSchemaParse.
func ParseStructured(raw string) (Fields, error) {
	body := strings.TrimSpace(raw)
	if m := fencedJSONPattern.FindStringSubmatch(body); m != nil {
		body = strings.TrimSpace(m[1])
	}
	if body == "" {
		return Fields{}, fmt.Errorf("%w: empty reply", ErrSchemaParse)
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Fields{}, fmt.Errorf("%w: %v", ErrSchemaParse, err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Fields{}, fmt.Errorf("%w: expected object, got %T", ErrSchemaParse, doc)
	}

	schema, err := compiledSchema()
	if err != nil {
		return Fields{}, fmt.Errorf("compile answer schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return Fields{}, fmt.Errorf("%w: %v", ErrSchemaParse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Fields{}, fmt.Errorf("%w: %s", ErrSchemaParse, strings.Join(msgs, "; "))
	}

	return Fields{
		Answer:    asText(obj["answer"]),
		Found:     asBool(obj["found"]),
		Citations: obj["citations"],
		FollowUp:  asFollowUp(obj["follow_up"]),
	}, nil
}

func asText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		}
	case float64:
		return t != 0
	}
	return false
}

// asFollowUp treats the model's "None" spellings as absent
func asFollowUp(v any) *string {
	text := asText(v)
	switch strings.ToLower(text) {
	case "", "none", "null", "n/a":
		return nil
	}
	return &text
}
