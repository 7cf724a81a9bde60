// Package document extracts text and metadata from uploaded PDF files.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	previewPageChars  = 1000
	previewTotalChars = 5000
	pagePreviewChars  = 500
)

// ErrNoText means the PDF parsed but no page carried extractable text,
// typically a scanned or image-only document.
var ErrNoText = errors.New("no text could be extracted from this PDF; the document might contain only images or be password protected")

// ExtractOptions controls how much of a document is read.
type ExtractOptions struct {
	// MaxPages limits the pages processed. Zero means all pages.
	MaxPages int
	// Preview caps every page at 1000 characters and stops once the output
	// passes 5000 characters.
	Preview bool
}

// Info is the document metadata shown next to an upload.
type Info struct {
	Pages   int    `json:"pages"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Subject string `json:"subject"`
	Creator string `json:"creator"`
}

// pageSource is the part of a parsed PDF the extractor needs. Pages are 1-based.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfSource struct {
	r *pdf.Reader
}

func (s pdfSource) NumPage() int {
	return s.r.NumPage()
}

func (s pdfSource) PageText(i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: malformed content: %v", i, rec)
		}
	}()

	p := s.r.Page(i)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

// open parses the PDF. The parser panics on some malformed inputs, so the
// panic is turned into an error.
func open(r io.ReaderAt, size int64) (reader *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reader, err = nil, fmt.Errorf("error processing PDF: %v", rec)
		}
	}()

	reader, err = pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("error processing PDF: %w", err)
	}
	return reader, nil
}

// Extract returns the text of the PDF, one block per page.
func Extract(r io.ReaderAt, size int64, opts ExtractOptions) (string, error) {
	reader, err := open(r, size)
	if err != nil {
		return "", err
	}
	return extractPages(pdfSource{r: reader}, opts)
}

// ExtractBytes is Extract over an in-memory document.
func ExtractBytes(data []byte, opts ExtractOptions) (string, error) {
	return Extract(bytes.NewReader(data), int64(len(data)), opts)
}

// ReadInfo returns page count and document information fields. Missing
// fields are reported as "Unknown".
func ReadInfo(r io.ReaderAt, size int64) (Info, error) {
	reader, err := open(r, size)
	if err != nil {
		return Info{}, err
	}

	meta := reader.Trailer().Key("Info")
	field := func(name string) string {
		if v := strings.TrimSpace(meta.Key(name).Text()); v != "" {
			return v
		}
		return "Unknown"
	}

	return Info{
		Pages:   reader.NumPage(),
		Title:   field("Title"),
		Author:  field("Author"),
		Subject: field("Subject"),
		Creator: field("Creator"),
	}, nil
}

// PreviewPages returns the first 500 characters of up to maxPages pages.
func PreviewPages(r io.ReaderAt, size int64, maxPages int) ([]string, error) {
	reader, err := open(r, size)
	if err != nil {
		return nil, err
	}
	return previewPages(pdfSource{r: reader}, maxPages)
}

func extractPages(src pageSource, opts ExtractOptions) (string, error) {
	total := src.NumPage()
	n := total
	if opts.MaxPages > 0 && opts.MaxPages < total {
		n = opts.MaxPages
	}

	var b strings.Builder
	chars := 0
	hasText := false

	for i := 1; i <= n; i++ {
		text, err := src.PageText(i)
		if err != nil {
			return "", fmt.Errorf("error processing PDF: %w", err)
		}
		if strings.TrimSpace(text) != "" {
			hasText = true
		}
		if opts.Preview {
			text = truncate(text, previewPageChars)
		}

		block := fmt.Sprintf("\n--- Page %d of %d ---\n%s\n", i, total, text)
		b.WriteString(block)
		chars += len([]rune(block))

		if opts.Preview && chars > previewTotalChars {
			fmt.Fprintf(&b, "\n... Preview truncated. %d more pages available ...", total-i)
			break
		}
	}

	if !hasText {
		return "", ErrNoText
	}
	return b.String(), nil
}

func previewPages(src pageSource, maxPages int) ([]string, error) {
	n := src.NumPage()
	if maxPages > 0 && maxPages < n {
		n = maxPages
	}

	previews := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		text, err := src.PageText(i)
		if err != nil {
			return nil, fmt.Errorf("error previewing PDF: %w", err)
		}
		previews = append(previews, fmt.Sprintf("**Page %d:**\n%s", i, truncate(text, pagePreviewChars)))
	}
	return previews, nil
}

// truncate cuts s to limit runes and marks the cut with "...".
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
