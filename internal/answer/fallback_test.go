package answer

import (
	"testing"

	"github.com/ppiankov/docanswer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func citationsOf(t *testing.T, f Fields) []model.CitationRecord {
	t.Helper()
	cits, ok := f.Citations.([]model.CitationRecord)
	require.True(t, ok, "fallback citations should be records, got %T", f.Citations)
	return cits
}

func TestFallbackExtract_SingleBracketedCitation(t *testing.T) {
	fields, strategy := FallbackExtract("[X.pdf, p.7]")

	assert.Equal(t, StrategyBracketed, strategy)
	assert.True(t, fields.Found)
	assert.Nil(t, fields.FollowUp)

	cits := citationsOf(t, fields)
	require.Len(t, cits, 1)
	assert.True(t, cits[0].Equal(model.NewCitation("X.pdf", model.IntPtr(7), "")), "got %+v", cits[0])
}

func TestFallbackExtract_TreatyScenario(t *testing.T) {
	raw := "The treaty was signed in 1919 [treaty.pdf, p.12].\n\nFollow-up: none"

	fields, strategy := FallbackExtract(raw)

	assert.Equal(t, StrategyBracketed, strategy)
	assert.Equal(t, "The treaty was signed in 1919 [treaty.pdf, p.12].", fields.Answer)
	assert.True(t, fields.Found)
	assert.Nil(t, fields.FollowUp)

	cits := citationsOf(t, fields)
	require.Len(t, cits, 1)
	assert.Equal(t, "treaty.pdf", cits[0].SourceName())
	require.NotNil(t, cits[0].Page)
	assert.Equal(t, 12, *cits[0].Page)
	assert.Empty(t, cits[0].Excerpt)
}

func TestFallbackExtract_BracketVariants(t *testing.T) {
	raw := "One [a.pdf,p.1], two [ b.pdf , p 2] and three [c.pdf, p. 3]. Again [a.pdf, p.1]."

	fields, strategy := FallbackExtract(raw)
	require.Equal(t, StrategyBracketed, strategy)

	cits := citationsOf(t, fields)
	require.Len(t, cits, 4, "duplicates are kept in order of appearance")

	want := []struct {
		source string
		page   int
	}{{"a.pdf", 1}, {"b.pdf", 2}, {"c.pdf", 3}, {"a.pdf", 1}}
	for i, w := range want {
		assert.Equal(t, w.source, cits[i].SourceName())
		require.NotNil(t, cits[i].Page)
		assert.Equal(t, w.page, *cits[i].Page)
	}
}

func TestFallbackExtract_NoCitations(t *testing.T) {
	raw := "\n\nI could not find this in the documents.\n\nPlease upload more material."

	fields, strategy := FallbackExtract(raw)

	assert.Equal(t, StrategyNone, strategy)
	assert.False(t, fields.Found)
	assert.Equal(t, "I could not find this in the documents.", fields.Answer)
	assert.Empty(t, citationsOf(t, fields))
}

func TestFallbackExtract_EmbeddedJSON(t *testing.T) {
	raw := `{"answer": "Yes", "citations": {"file": "c.pdf", "p": 2, "excerpt": "quoted"}}`

	fields, strategy := FallbackExtract(raw)
	require.Equal(t, StrategyEmbeddedJSON, strategy)

	cits := citationsOf(t, fields)
	require.Len(t, cits, 1)
	assert.Equal(t, "c.pdf", cits[0].SourceName())
	require.NotNil(t, cits[0].Page)
	assert.Equal(t, 2, *cits[0].Page)
	assert.Equal(t, "quoted", cits[0].Excerpt)
}

func TestFallbackExtract_EmbeddedJSONList(t *testing.T) {
	raw := `{"citations": [{"filename": "d.pdf", "page": 4}, "not a mapping", {"source": "e.pdf"}]}`

	fields, strategy := FallbackExtract(raw)
	require.Equal(t, StrategyEmbeddedJSON, strategy)

	cits := citationsOf(t, fields)
	require.Len(t, cits, 2)
	assert.Equal(t, "d.pdf", cits[0].SourceName())
	assert.Equal(t, "e.pdf", cits[1].SourceName())
	assert.Nil(t, cits[1].Page)
}

func TestFallbackExtract_LoosePagePattern(t *testing.T) {
	raw := "See report.pdf p.3 and annex.PDF: 5 for the figures."

	fields, strategy := FallbackExtract(raw)
	require.Equal(t, StrategyLoosePage, strategy)

	cits := citationsOf(t, fields)
	require.Len(t, cits, 2)
	assert.Equal(t, "report.pdf", cits[0].SourceName())
	assert.Equal(t, 3, *cits[0].Page)
	assert.Equal(t, "annex.PDF", cits[1].SourceName())
	assert.Equal(t, 5, *cits[1].Page)
}

func TestFallbackExtract_BarePDFSalvage(t *testing.T) {
	raw := "The figures come from reports/summary_2020.pdf somewhere."

	fields, strategy := FallbackExtract(raw)
	require.Equal(t, StrategyBarePDF, strategy)
	assert.True(t, fields.Found)

	cits := citationsOf(t, fields)
	require.Len(t, cits, 1)
	assert.Equal(t, "reports/summary_2020.pdf", cits[0].SourceName())
	assert.Nil(t, cits[0].Page)
}

func TestFallbackExtract_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"[",
		"[,p.]",
		"{",
		`{"citations": 42}`,
		`{"citations": null}`,
		"[a.pdf, p.99999999999999999999999]",
		"\r\n\r\nwindows line endings\r\n\r\nsecond",
	}
	for _, raw := range inputs {
		assert.NotPanics(t, func() { FallbackExtract(raw) }, "input %q", raw)
	}
}

func TestFallbackExtract_EmptyInput(t *testing.T) {
	fields, strategy := FallbackExtract("")

	assert.Equal(t, StrategyNone, strategy)
	assert.Equal(t, "", fields.Answer)
	assert.False(t, fields.Found)
	assert.Empty(t, citationsOf(t, fields))
}

func TestFirstParagraph_CRLF(t *testing.T) {
	assert.Equal(t, "windows line endings", firstParagraph("\r\n\r\nwindows line endings\r\n\r\nsecond"))
}
