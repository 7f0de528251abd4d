package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestPDF writes a minimal valid PDF with one Helvetica text line per page
func writeTestPDF(t *testing.T, path string, pages []string) {
	t.Helper()

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestPDFLoader_PagesAreOneBased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treaty.pdf")
	writeTestPDF(t, path, []string{"alpha page one", "beta page two"})

	pages, err := PDFLoader{}.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	for i, p := range pages {
		assert.Equal(t, "treaty.pdf", p.Source)
		require.NotNil(t, p.Page)
		assert.Equal(t, i+1, *p.Page)
	}
	assert.Contains(t, pages[0].Text, "alpha")
	assert.Contains(t, pages[1].Text, "beta")
}

func TestPDFLoader_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

	_, err := PDFLoader{}.Load(context.Background(), path)
	assert.Error(t, err)
}

func TestHTMLLoader_VisibleTextOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.html")
	doc := `<html><head><title>ignored</title><style>p{}</style></head>
<body><h1>Heading</h1><script>var x = 1;</script>
<p>First   paragraph
text.</p><div>Second <b>bold</b> part</div></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	pages, err := HTMLLoader{}.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.Equal(t, "notes.html", pages[0].Source)
	assert.Nil(t, pages[0].Page, "html has no pagination")
	assert.Equal(t, "Heading\n\nFirst paragraph text.\n\nSecond bold part", pages[0].Text)
}

func TestTextLoader_FormFeedPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\f\fthree"), 0644))

	pages, err := TextLoader{}.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 2, "blank pages are skipped")

	assert.Equal(t, 1, *pages[0].Page)
	assert.Equal(t, 3, *pages[1].Page, "page numbers follow the file, not the kept pages")
	assert.Equal(t, "three", pages[1].Text)
}

func TestLoaderFor(t *testing.T) {
	tests := []struct {
		path string
		want Loader
	}{
		{"a.pdf", PDFLoader{}},
		{"A.PDF", PDFLoader{}},
		{"page.htm", HTMLLoader{}},
		{"page.html", HTMLLoader{}},
		{"notes.md", TextLoader{}},
		{"notes.txt", TextLoader{}},
	}
	for _, tt := range tests {
		got, err := LoaderFor(tt.path)
		require.NoError(t, err, tt.path)
		assert.IsType(t, tt.want, got, tt.path)
	}

	_, err := LoaderFor("sheet.xlsx")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
