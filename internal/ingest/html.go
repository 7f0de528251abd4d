package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// HTMLLoader extracts visible text from an HTML file as a single unpaginated page
type HTMLLoader struct{}

// Load parses the HTML file at path
func (HTMLLoader) Load(_ context.Context, path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open html: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parseHTML(f, SourceName(path))
}

func parseHTML(r io.Reader, source string) ([]Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	text := extractVisibleText(doc)
	if text == "" {
		return nil, nil
	}
	return []Page{{Source: source, Text: text}}, nil
}

// blockElements end a paragraph so the splitter can break on them
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "table": true, "blockquote": true, "pre": true,
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n\n")
		}
	}

	walk(n)
	return tidyParagraphs(buf.String())
}

// tidyParagraphs trims each paragraph and drops empty ones
func tidyParagraphs(s string) string {
	var paras []string
	for _, p := range strings.Split(s, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return strings.Join(paras, "\n\n")
}
