package answer

import "github.com/ppiankov/docanswer/internal/model"

// ExcerptLimit is the number of characters of chunk content kept for an excerpt
const ExcerptLimit = 400

// chunkKey keys the excerpt lookup. A nil page is its own key space.
type chunkKey struct {
	source  string
	page    int
	hasPage bool
}

func keyFor(source string, page *int) chunkKey {
	if page == nil {
		return chunkKey{source: source}
	}
	return chunkKey{source: source, page: *page, hasPage: true}
}

// excerptLookup maps (source, page) to the first chunk content seen for it
func excerptLookup(chunks []model.RetrievedChunk, limit int) map[chunkKey]string {
	lookup := make(map[chunkKey]string, len(chunks))
	for _, c := range chunks {
		key := keyFor(c.Source, c.Page)
		if _, exists := lookup[key]; exists {
			continue
		}
		lookup[key] = truncateRunes(c.Content, limit)
	}
	return lookup
}

// ResolveCitations fills empty excerpts from the retrieved chunks.
// It returns a new slice and the number of excerpts filled; source and page are never changed.
func ResolveCitations(citations []model.CitationRecord, chunks []model.RetrievedChunk) ([]model.CitationRecord, int) {
	out := make([]model.CitationRecord, len(citations))
	copy(out, citations)
	if len(chunks) == 0 {
		return out, 0
	}

	lookup := excerptLookup(chunks, ExcerptLimit)
	filled := 0
	for i := range out {
		if out[i].Excerpt != "" || out[i].Source == nil {
			continue
		}
		if excerpt, ok := lookup[keyFor(*out[i].Source, out[i].Page)]; ok && excerpt != "" {
			out[i].Excerpt = excerpt
			filled++
		}
	}
	return out, filled
}

func truncateRunes(s string, limit int) string {
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
