package ingest

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

// PDFLoader extracts plain text page by page. Page numbers are 1-based.
type PDFLoader struct{}

// Load reads every page of the PDF at path
func (PDFLoader) Load(ctx context.Context, path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	return readPDF(ctx, f, info.Size(), SourceName(path))
}

func readPDF(ctx context.Context, ra io.ReaderAt, size int64, source string) ([]Page, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", source, err)
	}

	total := r.NumPage()
	pages := make([]Page, 0, total)

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d of %s: %w", i, source, err)
		}

		pages = append(pages, Page{Source: source, Page: pageNumber(i), Text: text})
	}

	return pages, nil
}
