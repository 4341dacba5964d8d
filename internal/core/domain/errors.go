package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates content with the same checksum is
	// already stored. Deduplication treats this as a skip, not a
	// failure.
	ErrDuplicate = errors.New("duplicate content")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage indicates a metadata or content write failed.
	// Metadata integrity cannot be partially trusted, so this fails
	// the whole URL being processed.
	ErrStorage = errors.New("storage failure")

	// ErrDimensionMismatch indicates a vector's length does not match
	// the store's configured embedding dimension. Distance
	// comparisons across dimensions are meaningless, so this always
	// fails loudly.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding provider is not
	// configured. Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrUnsupportedType indicates no processor accepts the file type.
	ErrUnsupportedType = errors.New("unsupported file type")
)
