package model

// RetrievedChunk is a span of document text returned by retrieval.
// It is read-only input to citation resolution.
type RetrievedChunk struct {
	Source  string `json:"source"`
	Page    *int   `json:"page"`
	Content string `json:"content"`
}
