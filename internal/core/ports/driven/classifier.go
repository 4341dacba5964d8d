package driven

import "github.com/custodia-labs/librarian/internal/core/domain"

// Classifier determines the type of a file on disk.
type Classifier interface {
	// Classify returns the detected file type, or FileTypeUnknown when
	// neither extension nor content identifies the file.
	Classify(path string) domain.FileType
}
