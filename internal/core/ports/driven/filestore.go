package driven

import (
	"context"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// TextHit is a full-text search result from the metadata store.
type TextHit struct {
	// File is the matched file record.
	File domain.FileRecord

	// Description is the stored content description for the file.
	Description string
}

// FileStore persists file metadata, extracted content, and per-URL
// processing state. Backed by SQLite with an FTS5 full-text mirror.
type FileStore interface {
	// InsertFile stores a new file record and returns its assigned ID.
	// Inserting a checksum that already exists returns ErrDuplicate;
	// the lookup and insert are atomic.
	InsertFile(ctx context.Context, rec *domain.FileRecord) (int64, error)

	// GetFile retrieves a file record by ID.
	GetFile(ctx context.Context, id int64) (*domain.FileRecord, error)

	// GetFileByChecksum retrieves a file record by content checksum.
	GetFileByChecksum(ctx context.Context, checksum string) (*domain.FileRecord, error)

	// FileExists reports whether content with this checksum is stored.
	FileExists(ctx context.Context, checksum string) (bool, error)

	// InsertContent stores the extracted content for a file and
	// mirrors its text fields into the full-text index in the same
	// transaction. Content is written once per file, never updated.
	InsertContent(ctx context.Context, content *domain.ContentRecord) error

	// GetContent retrieves the content record for a file.
	GetContent(ctx context.Context, fileID int64) (*domain.ContentRecord, error)

	// SearchText runs a full-text query against the mirrored index and
	// returns up to limit hits.
	SearchText(ctx context.Context, query domain.TextQuery, limit int) ([]TextHit, error)

	// GetState returns the processing state for a URL, or ErrNotFound
	// if the URL has never been seen.
	GetState(ctx context.Context, url string) (*domain.URLState, error)

	// SetState upserts the processing state for a URL.
	SetState(ctx context.Context, url string, state domain.ProcessingState) error

	// CountFiles returns the number of stored file records.
	CountFiles(ctx context.Context) (int, error)

	// Close releases the underlying database.
	Close() error
}
