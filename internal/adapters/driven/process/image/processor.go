// Package image processes image files. The description is built from
// decoded image metadata (format and dimensions); richer captions are
// the job of a model-backed processor plugged in behind the same port.
package image

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Processor = (*Processor)(nil)

// Processor generates descriptions for image files.
type Processor struct{}

// New creates an image processor.
func New() *Processor {
	return &Processor{}
}

// CanProcess returns true only for IMAGE files.
func (p *Processor) CanProcess(t domain.FileType) bool {
	return t == domain.FileTypeImage
}

// Process decodes the image header and returns a description. Images
// carry no extracted text; the description alone is indexed and
// embedded.
func (p *Processor) Process(_ context.Context, path string) (*domain.ContentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		// Formats outside the registered decoders (bmp, webp, tiff)
		// still get a generic description rather than failing.
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		return &domain.ContentRecord{
			Description: "Image: " + ext + " file",
		}, nil
	}

	return &domain.ContentRecord{
		Description: fmt.Sprintf("Image: %s, %dx%d pixels",
			strings.ToUpper(format), cfg.Width, cfg.Height),
	}, nil
}
