package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextLoader reads plain text; form feeds separate pages, numbered from 1
type TextLoader struct{}

// Load reads the text file at path
func (TextLoader) Load(_ context.Context, path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	return splitTextPages(string(data), SourceName(path)), nil
}

func splitTextPages(data, source string) []Page {
	var pages []Page
	for i, text := range strings.Split(data, "\f") {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Source: source, Page: pageNumber(i + 1), Text: text})
	}
	return pages
}
