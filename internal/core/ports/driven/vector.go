package driven

import "context"

// VectorIndex stores fixed-dimension embeddings keyed by file ID and
// answers nearest-neighbour queries natively. Callers never scan raw
// vectors themselves; this isolation lets the store swap its indexing
// strategy without changing callers.
type VectorIndex interface {
	// Add inserts or replaces the embedding for a file. Re-indexing
	// replaces, never appends. Vectors whose length differs from the
	// configured dimension are rejected with ErrDimensionMismatch.
	Add(ctx context.Context, fileID int64, embedding []float32) error

	// Get retrieves the stored embedding for a file, or ErrNotFound.
	Get(ctx context.Context, fileID int64) ([]float32, error)

	// Has reports whether an embedding exists for the file. Absence is
	// a valid state, not corruption.
	Has(ctx context.Context, fileID int64) (bool, error)

	// Search returns the k nearest rows to the query vector, ordered
	// by ascending cosine distance (0 = identical, 2 = opposite).
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit is a nearest-neighbour search result.
type VectorHit struct {
	// FileID is the matched file.
	FileID int64

	// Distance is the cosine distance to the query, in [0,2].
	Distance float64
}
