// Package text processes plain-text files.
package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Processor = (*Processor)(nil)

// DefaultChunkSize is the read buffer size.
const DefaultChunkSize = 64 * 1024

// previewLen is how many characters of text become the description.
const previewLen = 200

// Processor extracts content from plain-text files by reading them in
// fixed-size chunks.
type Processor struct {
	chunkSize int
}

// New creates a text processor. chunkSize bounds the read buffer; zero
// means DefaultChunkSize.
func New(chunkSize int) *Processor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Processor{chunkSize: chunkSize}
}

// CanProcess returns true only for TEXT files.
func (p *Processor) CanProcess(t domain.FileType) bool {
	return t == domain.FileTypeText
}

// Process reads the file and returns its full text plus a single-line
// preview description suitable for search-result snippets.
func (p *Processor) Process(ctx context.Context, path string) (*domain.ContentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var sb strings.Builder
	buf := make([]byte, p.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := f.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
	}

	fullText := sb.String()

	preview := fullText
	if len(preview) > previewLen {
		preview = preview[:previewLen]
	}
	preview = strings.TrimSpace(strings.ReplaceAll(preview, "\n", " "))
	if len(fullText) > previewLen {
		preview += "..."
	}

	return &domain.ContentRecord{
		ExtractedText: fullText,
		Description:   "Text document: " + preview,
	}, nil
}
