package driven

import "context"

// Extractor expands archive files into individual files.
type Extractor interface {
	// IsArchive reports whether the file at path is a supported
	// archive format.
	IsArchive(path string) bool

	// Extract expands the archive into dest, yielding the path of
	// each extracted file as it is written. The paths channel is a
	// one-shot, non-restartable sequence; the errs channel carries at
	// most one error and both channels are closed when extraction
	// finishes or ctx is cancelled. A consumer that stops early must
	// cancel ctx; the extractor guarantees the archive handle is
	// released on every exit path.
	Extract(ctx context.Context, path, dest string) (<-chan string, <-chan error)
}
