package driven

import (
	"context"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// Processor extracts searchable content from a file of a specific type.
// The coordinator holds an ordered list of processors and dispatches to
// the first whose CanProcess accepts the file type.
type Processor interface {
	// CanProcess reports whether this processor handles the file type.
	CanProcess(t domain.FileType) bool

	// Process reads the file and returns its extracted content. The
	// returned record has no FileID; the coordinator assigns it.
	Process(ctx context.Context, path string) (*domain.ContentRecord, error)
}
