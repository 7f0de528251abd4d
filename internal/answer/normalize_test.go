package answer

import (
	"encoding/json"
	"testing"

	"github.com/ppiankov/docanswer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCitations(t *testing.T, want, got []model.CitationRecord) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "citation %d: want %+v, got %+v", i, want[i], got[i])
	}
}

func TestNormalize_AbsentAndEmpty(t *testing.T) {
	for _, v := range []any{nil, []any{}, ""} {
		got, dropped := NewNormalizer(nil).Normalize(v)
		assert.NotNil(t, got, "citations must always be a sequence")
		assert.Zero(t, dropped)
		assert.Empty(t, got)
	}
}

func TestNormalize_MixedShapeList(t *testing.T) {
	var v any
	require.NoError(t, json.Unmarshal([]byte(`["[a.pdf, p.1]", {"source": "b.pdf", "p": 4}, 42]`), &v))

	got, dropped := NewNormalizer(nil).Normalize(v)

	assert.Equal(t, 1, dropped)
	assertCitations(t, []model.CitationRecord{
		model.NewCitation("a.pdf", model.IntPtr(1), ""),
		model.NewCitation("b.pdf", model.IntPtr(4), ""),
	}, got)
}

func TestNormalize_ElementShapes(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		want        []model.CitationRecord
		wantDropped int
	}{
		{
			name:  "single mapping",
			input: map[string]any{"source": "a.pdf", "page": float64(2), "excerpt": "ex"},
			want:  []model.CitationRecord{model.NewCitation("a.pdf", model.IntPtr(2), "ex")},
		},
		{
			name:  "alias keys in priority order",
			input: map[string]any{"source": nil, "file": "f.pdf", "filename": "g.pdf", "page": nil, "p": "9"},
			want:  []model.CitationRecord{model.NewCitation("f.pdf", model.IntPtr(9), "")},
		},
		{
			name:  "mapping without source",
			input: map[string]any{"page": float64(3)},
			want:  []model.CitationRecord{{Page: model.IntPtr(3)}},
		},
		{
			name:  "fractional page becomes unknown",
			input: map[string]any{"source": "a.pdf", "page": 3.5},
			want:  []model.CitationRecord{model.NewCitation("a.pdf", nil, "")},
		},
		{
			name:  "string with several bracketed citations",
			input: "[a.pdf, p.1] and [b.pdf, p.2]",
			want: []model.CitationRecord{
				model.NewCitation("a.pdf", model.IntPtr(1), ""),
				model.NewCitation("b.pdf", model.IntPtr(2), ""),
			},
		},
		{
			name:  "blank strings kept as sources",
			input: []any{"", "   ", "a.pdf"},
			want: []model.CitationRecord{
				model.NewCitation("", nil, ""),
				model.NewCitation("", nil, ""),
				model.NewCitation("a.pdf", nil, ""),
			},
		},
		{
			name:  "JSON-encoded mapping string",
			input: []any{`{"file": "c.pdf", "page": "7", "excerpt": "e"}`},
			want:  []model.CitationRecord{model.NewCitation("c.pdf", model.IntPtr(7), "e")},
		},
		{
			name:        "JSON-encoded list string skips non-mappings",
			input:       []any{`[{"source": "d.pdf", "page": 1}, 5]`},
			want:        []model.CitationRecord{model.NewCitation("d.pdf", model.IntPtr(1), "")},
			wantDropped: 1,
		},
		{
			name:  "plain string is a source name",
			input: []string{"  appendix.pdf  "},
			want:  []model.CitationRecord{model.NewCitation("appendix.pdf", nil, "")},
		},
		{
			name:  "JSON scalar string is a source name",
			input: "42",
			want:  []model.CitationRecord{model.NewCitation("42", nil, "")},
		},
		{
			name:        "nested list element is dropped",
			input:       []any{[]any{"a.pdf"}, true, map[string]any{"source": "z.pdf"}},
			want:        []model.CitationRecord{model.NewCitation("z.pdf", nil, "")},
			wantDropped: 2,
		},
		{
			name:        "top-level number is dropped",
			input:       float64(42),
			want:        []model.CitationRecord{},
			wantDropped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := NewNormalizer(nil).Normalize(tt.input)
			assert.Equal(t, tt.wantDropped, dropped)
			assertCitations(t, tt.want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	first := []model.CitationRecord{
		model.NewCitation("a.pdf", model.IntPtr(1), "alpha"),
		{Page: model.IntPtr(2)},
		model.NewCitation("b.pdf", nil, ""),
		model.NewCitation("a.pdf", model.IntPtr(1), "alpha"),
	}

	t.Run("records", func(t *testing.T) {
		again := NormalizeCitations(first)
		assertCitations(t, first, again)
		assertCitations(t, first, NormalizeCitations(again))
	})

	t.Run("decoded JSON mappings", func(t *testing.T) {
		data, err := json.Marshal(first)
		require.NoError(t, err)
		var decoded any
		require.NoError(t, json.Unmarshal(data, &decoded))

		assertCitations(t, first, NormalizeCitations(decoded))
	})
}

func TestNormalize_OrderPreservedForSchemaList(t *testing.T) {
	raw := "```json\n" + `{"answer": "a", "found": true, "citations": [` +
		`{"source": "1.pdf", "page": 1}, "[2.pdf, p.2]", {"file": "3.pdf", "p": 3}], "follow_up": null}` + "\n```"

	fields, err := ParseStructured(raw)
	require.NoError(t, err)

	got := NormalizeCitations(fields.Citations)
	require.Len(t, got, 3)
	for i, want := range []string{"1.pdf", "2.pdf", "3.pdf"} {
		assert.Equal(t, want, got[i].SourceName())
		assert.Equal(t, i+1, *got[i].Page)
	}
}
