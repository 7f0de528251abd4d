// Package index is an in-memory vector store over document chunks.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/ppiankov/docanswer/internal/model"
)

var (
	// ErrEmptyIndex is returned when searching an index with no entries
	ErrEmptyIndex = errors.New("index is empty")

	// ErrDimensionMismatch is returned when a vector's length differs from the index's
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Entry is one embedded chunk
type Entry struct {
	ID      string    `json:"id"`
	Source  string    `json:"source"`
	Page    *int      `json:"page"`
	Content string    `json:"content"`
	Vector  []float32 `json:"vector"`
}

// Hit is a search result
type Hit struct {
	Entry
	Score float64
}

// Chunk converts the hit into the shape the answer pipeline consumes
func (h Hit) Chunk() model.RetrievedChunk {
	return model.RetrievedChunk{Source: h.Source, Page: h.Page, Content: h.Content}
}

// Chunks converts hits in order
func Chunks(hits []Hit) []model.RetrievedChunk {
	out := make([]model.RetrievedChunk, len(hits))
	for i, h := range hits {
		out[i] = h.Chunk()
	}
	return out
}

// Index is safe for concurrent use
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []Entry
	norms   []float64
}

// New creates an empty index
func New() *Index {
	return &Index{}
}

// Add appends entries. All vectors must share one dimension; entries without an ID get one.
func (ix *Index) Add(entries ...Entry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	dim := ix.dim
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %d (%s): empty vector: %w", i, e.Source, ErrDimensionMismatch)
		}
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return fmt.Errorf("entry %d (%s): got %d, want %d: %w", i, e.Source, len(e.Vector), dim, ErrDimensionMismatch)
		}
	}

	ix.dim = dim
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		ix.entries = append(ix.entries, e)
		ix.norms = append(ix.norms, norm(e.Vector))
	}
	return nil
}

// Len returns the number of entries
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Dim returns the vector dimension, 0 while empty
func (ix *Index) Dim() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

// Sources lists distinct source names in insertion order
func (ix *Index) Sources() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, e := range ix.entries {
		if !seen[e.Source] {
			seen[e.Source] = true
			out = append(out, e.Source)
		}
	}
	return out
}

// HasSource reports whether any entry came from source
func (ix *Index) HasSource(source string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, e := range ix.entries {
		if e.Source == source {
			return true
		}
	}
	return false
}

// Search returns the k entries most similar to query, best first
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scored, err := ix.score(query)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	return scored[:min(k, len(scored))], nil
}

// SearchMMR selects k entries by maximal marginal relevance among the fetchK most similar.
// lambda=1 is pure relevance, lambda=0 pure diversity.
func (ix *Index) SearchMMR(query []float32, k, fetchK int, lambda float64) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scored, err := ix.score(query)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	if fetchK < k {
		fetchK = k
	}
	candidates := scored[:min(fetchK, len(scored))]

	selected := make([]Hit, 0, min(k, len(candidates)))
	used := make([]bool, len(candidates))

	for len(selected) < k && len(selected) < len(candidates) {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			redundancy := 0.0
			for j, s := range selected {
				if sim := cosine(c.Vector, s.Vector, 0, 0); j == 0 || sim > redundancy {
					redundancy = sim
				}
			}
			mmr := lambda*c.Score - (1-lambda)*redundancy
			if mmr > bestScore {
				best, bestScore = i, mmr
			}
		}
		used[best] = true
		selected = append(selected, candidates[best])
	}

	return selected, nil
}

// score ranks every entry by cosine similarity to query; caller holds the read lock
func (ix *Index) score(query []float32) ([]Hit, error) {
	if len(ix.entries) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w", len(query), ix.dim, ErrDimensionMismatch)
	}

	qn := norm(query)
	hits := make([]Hit, len(ix.entries))
	for i, e := range ix.entries {
		hits[i] = Hit{Entry: e, Score: cosine(query, e.Vector, qn, ix.norms[i])}
	}

	// Stable so equal scores keep insertion order
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	return hits, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity; zero norms are computed on demand
func cosine(a, b []float32, na, nb float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	if na == 0 {
		na = norm(a)
	}
	if nb == 0 {
		nb = norm(b)
	}
	if na == 0 || nb == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
