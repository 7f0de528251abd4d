package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
)

// ErrDisallowedByRobots is returned when robots.txt forbids fetching a document
var ErrDisallowedByRobots = errors.New("disallowed by robots.txt")

// IsURL reports whether a document argument is a remote http(s) URL
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// SourceFromURL names a remote document by its last path segment, or its host when the path is empty
func SourceFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	p := strings.Trim(parsed.Path, "/")
	if p == "" {
		return parsed.Host
	}
	last := path.Base(p)
	if unescaped, err := url.PathUnescape(last); err == nil {
		return unescaped
	}
	return last
}

// URLLoader fetches a remote PDF, HTML or text document
type URLLoader struct {
	fetcher *Fetcher
	robots  *RobotsChecker
}

// NewURLLoader creates a URL loader; a nil robots checker skips robots.txt checks
func NewURLLoader(fetcher *Fetcher, robots *RobotsChecker) *URLLoader {
	return &URLLoader{fetcher: fetcher, robots: robots}
}

// Load fetches rawURL and extracts its pages according to the reply's content type
func (l *URLLoader) Load(ctx context.Context, rawURL string) ([]Page, error) {
	if l.robots != nil {
		allowed, err := l.robots.IsAllowed(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowedByRobots)
		}
	}

	res, err := l.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	source := SourceFromURL(rawURL)
	mediaType, _, _ := mime.ParseMediaType(res.ContentType)

	switch {
	case mediaType == "application/pdf" || strings.HasSuffix(strings.ToLower(source), ".pdf"):
		return readPDF(ctx, bytes.NewReader(res.Body), int64(len(res.Body)), source)
	case mediaType == "text/plain":
		return splitTextPages(string(res.Body), source), nil
	default:
		return parseHTML(bytes.NewReader(res.Body), source)
	}
}
