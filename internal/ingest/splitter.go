package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/docanswer/internal/model"
)

// DefaultSeparators are tried in order, coarsest first
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts page text into overlapping chunks of at most ChunkSize runes.
// It splits on the coarsest separator present and recurses into pieces that are still too long.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewSplitter validates the sizes and returns a splitter using DefaultSeparators
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, chunkOverlap)
	}
	return &Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, Separators: DefaultSeparators}, nil
}

// SplitPages chunks every page; each chunk keeps its page's source and page number
func (s *Splitter) SplitPages(pages []Page) []model.RetrievedChunk {
	var chunks []model.RetrievedChunk
	for _, p := range pages {
		for _, text := range s.SplitText(p.Text) {
			chunks = append(chunks, model.RetrievedChunk{Source: p.Source, Page: p.Page, Content: text})
		}
	}
	return chunks
}

// SplitText chunks a single text
func (s *Splitter) SplitText(text string) []string {
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	return s.split(text, seps)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var out, good []string
	for _, piece := range splitOn(text, separator) {
		if runeLen(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, s.merge(good, separator)...)
	}
	return out
}

// merge packs small pieces into chunks, carrying up to ChunkOverlap runes into the next chunk
func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := runeLen(separator)
	var docs, current []string
	total := 0

	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, p := range pieces {
		n := runeLen(p)
		if total+n+joinLen() > s.ChunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.ChunkOverlap || (total+n+joinLen() > s.ChunkSize && total > 0) {
				drop := runeLen(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}

	if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func splitOn(text, separator string) []string {
	var parts []string
	if separator == "" {
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	for _, p := range strings.Split(text, separator) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
