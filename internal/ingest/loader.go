// Package ingest turns local documents into page-tagged text chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files no loader understands
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Page is the text of one page of a document.
// Page is nil for formats without pagination (HTML).
type Page struct {
	Source string
	Page   *int
	Text   string
}

// Loader reads a document into pages
type Loader interface {
	Load(ctx context.Context, path string) ([]Page, error)
}

// LoaderFor picks a loader by file extension
func LoaderFor(path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDFLoader{}, nil
	case ".html", ".htm":
		return HTMLLoader{}, nil
	case ".txt", ".md", ".text":
		return TextLoader{}, nil
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
}

// SourceName is the name citations refer to: the file's base name
func SourceName(path string) string {
	return filepath.Base(path)
}

func pageNumber(n int) *int {
	return &n
}
