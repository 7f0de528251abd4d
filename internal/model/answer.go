package model

// AnswerRecord is the canonical result of answering one question
type AnswerRecord struct {
	Answer    string           `json:"answer"`    // Direct answer, never empty when raw text was non-empty
	Found     bool             `json:"found"`     // True when a citation was recovered or the model asserted it
	Citations []CitationRecord `json:"citations"` // Order of first appearance, not deduplicated
	FollowUp  *string          `json:"follow_up"` // Optional follow-up question
}

// CitationRecord ties a claim to a source document and page
type CitationRecord struct {
	Source  *string `json:"source"`  // File name or identifier, nil if unrecoverable
	Page    *int    `json:"page"`    // 1-based page number, nil if unknown
	Excerpt string  `json:"excerpt"` // Supporting text, possibly empty
}

// NewCitation builds a citation with a known source
func NewCitation(source string, page *int, excerpt string) CitationRecord {
	return CitationRecord{Source: &source, Page: page, Excerpt: excerpt}
}

// SourceName returns the source or an empty string when unknown
func (c CitationRecord) SourceName() string {
	if c.Source == nil {
		return ""
	}
	return *c.Source
}

// Equal reports whether two citations carry the same source, page and excerpt
func (c CitationRecord) Equal(other CitationRecord) bool {
	if (c.Source == nil) != (other.Source == nil) {
		return false
	}
	if c.Source != nil && *c.Source != *other.Source {
		return false
	}
	if (c.Page == nil) != (other.Page == nil) {
		return false
	}
	if c.Page != nil && *c.Page != *other.Page {
		return false
	}
	return c.Excerpt == other.Excerpt
}

// IntPtr returns a pointer to a copy of n
func IntPtr(n int) *int {
	return &n
}

// StringPtr returns a pointer to a copy of s
func StringPtr(s string) *string {
	return &s
}
