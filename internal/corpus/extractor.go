package corpus

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor is one PDF text extraction strategy. Strategies are tried in
// order; a strategy that errors or yields only whitespace hands over to
// the next one. Strategies are never mixed within one document.
type Extractor interface {
	Name() string
	Extract(path string) (string, error)
}

// PageExtractor extracts text page by page. A page that cannot be parsed
// contributes an empty string instead of failing the document.
type PageExtractor struct{}

func (PageExtractor) Name() string { return "pages" }

func (PageExtractor) Extract(path string) (string, error) {
	reader, size, err := readAll(path)
	if err != nil {
		return "", err
	}
	r, err := pdf.NewReader(reader, size)
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		pages = append(pages, pageText(r, i))
	}
	return strings.Join(pages, "\n\n"), nil
}

// pageText extracts a single page, absorbing parse errors and panics from
// malformed page content streams.
func pageText(r *pdf.Reader, n int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// PlainTextExtractor extracts the whole document in one pass. Used as the
// fallback when page-wise extraction yields nothing.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Name() string { return "plaintext" }

func (PlainTextExtractor) Extract(path string) (string, error) {
	reader, size, err := readAll(path)
	if err != nil {
		return "", err
	}
	r, err := pdf.NewReader(reader, size)
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	stream, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, stream); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// readAll loads the file into memory so the handle can be closed before
// parsing starts.
func readAll(path string) (io.ReaderAt, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}
