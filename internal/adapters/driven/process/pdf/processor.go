// Package pdf processes PDF files using a pure-Go text extractor.
package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Processor = (*Processor)(nil)

// previewLen is how many characters of text become the description.
const previewLen = 200

// Processor extracts text and page counts from PDF files.
type Processor struct{}

// New creates a PDF processor.
func New() *Processor {
	return &Processor{}
}

// CanProcess returns true only for PDF files.
func (p *Processor) CanProcess(t domain.FileType) bool {
	return t == domain.FileTypePDF
}

// Process extracts text page by page. PDFs with no extractable text
// (scanned or image-only documents) still produce a valid record with
// an empty ExtractedText; absence of text is a valid state.
func (p *Processor) Process(ctx context.Context, path string) (rec *domain.ContentRecord, err error) {
	// The PDF parser panics on some malformed inputs; inputs here are
	// untrusted downloads.
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("parse %s: %v", filepath.Base(path), r)
		}
	}()

	reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}

	pageCount := reader.NumPage()

	var pages []string
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not fail the document.
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	fullText := strings.Join(pages, "\n")

	var description string
	if fullText == "" {
		description = fmt.Sprintf("PDF document: %d pages, no extractable text", pageCount)
	} else {
		preview := fullText
		if len(preview) > previewLen {
			preview = preview[:previewLen]
		}
		preview = strings.TrimSpace(strings.ReplaceAll(preview, "\n", " "))
		if len(fullText) > previewLen {
			preview += "..."
		}
		description = fmt.Sprintf("PDF document (%d pages): %s", pageCount, preview)
	}

	return &domain.ContentRecord{
		ExtractedText: fullText,
		Description:   description,
		PageCount:     pageCount,
	}, nil
}
