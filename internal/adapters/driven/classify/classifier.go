// Package classify determines file types from extensions and magic
// bytes.
package classify

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Ensure Classifier implements the interface.
var _ driven.Classifier = (*Classifier)(nil)

// headerSize is how many bytes are read for magic-byte detection.
// filetype needs at most 262 bytes for all registered matchers.
const headerSize = 262

// textExtensions are classified as TEXT without reading the file.
var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".csv": {}, ".json": {},
	".xml": {}, ".log": {}, ".rst": {},
}

// imageExtensions are classified as IMAGE without reading the file.
var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".bmp": {}, ".webp": {}, ".tiff": {}, ".tif": {},
}

// Classifier resolves file types by extension first, falling back to
// magic-byte inspection.
type Classifier struct{}

// New creates a classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify returns the file type for path.
//
// Resolution order:
//  1. Extension - instant, no file I/O.
//  2. Magic bytes via filetype - reads a small header from disk.
//  3. Printable-content sniff for extensionless text.
//  4. FileTypeUnknown if nothing matches.
func (c *Classifier) Classify(path string) domain.FileType {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return domain.FileTypeUnknown
	}

	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".pdf" {
		return domain.FileTypePDF
	}
	if _, ok := textExtensions[ext]; ok {
		return domain.FileTypeText
	}
	if _, ok := imageExtensions[ext]; ok {
		return domain.FileTypeImage
	}

	header, err := readHeader(path)
	if err != nil {
		return domain.FileTypeUnknown
	}

	kind, err := filetype.Match(header)
	if err == nil {
		switch {
		case kind == matchers.TypePdf:
			return domain.FileTypePDF
		case kind.MIME.Type == "image":
			return domain.FileTypeImage
		}
	}

	if looksLikeText(header) {
		return domain.FileTypeText
	}

	return domain.FileTypeUnknown
}

// readHeader reads up to headerSize bytes from the start of the file.
func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, headerSize)
	n, err := f.Read(header)
	if n == 0 && err != nil {
		return nil, err
	}
	return header[:n], nil
}

// looksLikeText reports whether the header is plausibly UTF-8 text:
// no NUL bytes and a high proportion of printable characters.
func looksLikeText(header []byte) bool {
	if len(header) == 0 {
		return false
	}

	printable := 0
	for _, b := range header {
		if b == 0 {
			return false
		}
		if b >= 0x20 || b == '\n' || b == '\r' || b == '\t' {
			printable++
		}
	}
	return float64(printable)/float64(len(header)) > 0.95
}
