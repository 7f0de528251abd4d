package answer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ppiankov/docanswer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCitations_FillsFromMatchingChunk(t *testing.T) {
	content := strings.Repeat("A", 1000)
	chunks := []model.RetrievedChunk{{Source: "a.pdf", Page: model.IntPtr(2), Content: content}}
	cits := []model.CitationRecord{model.NewCitation("a.pdf", model.IntPtr(2), "")}

	got, filled := ResolveCitations(cits, chunks)

	require.Len(t, got, 1)
	assert.Equal(t, 1, filled)
	assert.Equal(t, content[:ExcerptLimit], got[0].Excerpt)
	assert.Empty(t, cits[0].Excerpt, "input must not be mutated")
}

func TestResolveCitations_NeverOverwritesExcerpt(t *testing.T) {
	chunks := []model.RetrievedChunk{{Source: "a.pdf", Page: model.IntPtr(2), Content: "different content"}}
	cits := []model.CitationRecord{model.NewCitation("a.pdf", model.IntPtr(2), "pre-filled")}

	got, filled := ResolveCitations(cits, chunks)

	assert.Equal(t, 0, filled)
	assert.Equal(t, "pre-filled", got[0].Excerpt)
}

func TestResolveCitations_FirstChunkWins(t *testing.T) {
	chunks := []model.RetrievedChunk{
		{Source: "a.pdf", Page: model.IntPtr(1), Content: "first"},
		{Source: "a.pdf", Page: model.IntPtr(1), Content: "second"},
	}
	got, _ := ResolveCitations([]model.CitationRecord{model.NewCitation("a.pdf", model.IntPtr(1), "")}, chunks)

	assert.Equal(t, "first", got[0].Excerpt)
}

func TestResolveCitations_UnknownPageIsSeparateKeySpace(t *testing.T) {
	chunks := []model.RetrievedChunk{
		{Source: "a.pdf", Page: model.IntPtr(2), Content: "paged"},
		{Source: "page.html", Page: nil, Content: "unpaged"},
	}
	cits := []model.CitationRecord{
		model.NewCitation("a.pdf", nil, ""),
		model.NewCitation("page.html", nil, ""),
		model.NewCitation("page.html", model.IntPtr(1), ""),
		{Page: model.IntPtr(2)},
	}

	got, filled := ResolveCitations(cits, chunks)

	assert.Equal(t, 1, filled)
	assert.Empty(t, got[0].Excerpt, "unknown page must not match a paged chunk")
	assert.Equal(t, "unpaged", got[1].Excerpt)
	assert.Empty(t, got[2].Excerpt, "known page must not match an unpaged chunk")
	assert.Empty(t, got[3].Excerpt, "citation without a source cannot match")
}

func TestResolveCitations_PreservesIdentityAndCount(t *testing.T) {
	chunks := []model.RetrievedChunk{{Source: "a.pdf", Page: model.IntPtr(1), Content: "text"}}
	cits := []model.CitationRecord{
		model.NewCitation("b.pdf", model.IntPtr(1), ""),
		model.NewCitation("a.pdf", model.IntPtr(1), ""),
		model.NewCitation("b.pdf", model.IntPtr(1), ""),
	}

	got, _ := ResolveCitations(cits, chunks)

	require.Len(t, got, 3)
	for i := range cits {
		assert.Equal(t, cits[i].SourceName(), got[i].SourceName())
		assert.Equal(t, *cits[i].Page, *got[i].Page)
	}
	assert.Equal(t, "text", got[1].Excerpt)
	assert.Empty(t, got[0].Excerpt)
}

func TestResolveCitations_NoChunks(t *testing.T) {
	got, filled := ResolveCitations([]model.CitationRecord{model.NewCitation("a.pdf", nil, "")}, nil)
	assert.Equal(t, 0, filled)
	assert.Len(t, got, 1)

	empty, _ := ResolveCitations(nil, nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTruncateRunes(t *testing.T) {
	long := strings.Repeat("é", 500)
	got := truncateRunes(long, ExcerptLimit)
	assert.Equal(t, ExcerptLimit, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, "short", truncateRunes("short", ExcerptLimit))
	assert.Equal(t, "exact", truncateRunes("exact", 5))
}
