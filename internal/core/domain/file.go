package domain

import "time"

// FileType classifies stored files into the categories the pipeline
// knows how to process.
type FileType string

// Supported file types.
const (
	FileTypeText    FileType = "text"
	FileTypeImage   FileType = "image"
	FileTypePDF     FileType = "pdf"
	FileTypeUnknown FileType = "unknown"
)

// Valid reports whether t is one of the defined file types.
func (t FileType) Valid() bool {
	switch t {
	case FileTypeText, FileTypeImage, FileTypePDF, FileTypeUnknown:
		return true
	}
	return false
}

// LibraryBucket returns the library subdirectory for this file type.
// The bucket is part of the content-addressed layout and must stay
// stable across releases.
func (t FileType) LibraryBucket() string {
	switch t {
	case FileTypeText:
		return "text"
	case FileTypeImage:
		return "images"
	case FileTypePDF:
		return "pdfs"
	default:
		return ""
	}
}

// FileRecord is the metadata row for a stored file. It is immutable once
// written: the ID is assigned by the metadata store's insert and never
// reused, and the checksum uniquely identifies the stored content.
type FileRecord struct {
	// ID is assigned by the metadata store on insert.
	ID int64

	// OriginalURL is the URL the file was first ingested from.
	// Deduplication means later URLs carrying identical content are
	// not recorded here.
	OriginalURL string

	// Checksum is the streamed SHA-256 hex digest of the file content.
	// It is the single source of identity truth.
	Checksum string

	// Type is the classified file type.
	Type FileType

	// Size is the file size in bytes.
	Size int64

	// LibraryPath is the content-addressed location inside the library:
	// {bucket}/{checksum}{ext}. Fully derivable from metadata, never
	// dependent on the original filename.
	LibraryPath string

	// CreatedAt is when the record was written.
	CreatedAt time.Time
}
