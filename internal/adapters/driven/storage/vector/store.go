// Package vector implements the vector store on its own SQLite
// database. One row per file ID holds a fixed-width little-endian
// float32 blob with no length header; nearest-neighbour queries are
// answered inside the store so callers never scan raw vectors.
package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Store is the SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
	dim  int
}

// NewStore opens (or creates) the vector database inside dataDir with
// the given embedding dimension. If existing rows were written with a
// different dimension the open fails loudly: distance comparisons
// across dimensions would be silently wrong.
func NewStore(dataDir string, dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d",
			domain.ErrInvalidInput, dimensions)
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening vector database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS embeddings (
			file_id INTEGER PRIMARY KEY,
			embedding BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating embeddings table: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		dim:  dimensions,
	}

	if err := s.verifyDimension(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// verifyDimension checks any existing row against the configured
// dimension.
func (s *Store) verifyDimension() error {
	var blobLen int
	err := s.db.QueryRow("SELECT LENGTH(embedding) FROM embeddings LIMIT 1").Scan(&blobLen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspecting stored vectors: %w", err)
	}

	if blobLen != s.dim*4 {
		return fmt.Errorf("%w: store holds %d-dimension vectors, configured for %d; "+
			"migrate existing vectors before changing the dimension",
			domain.ErrDimensionMismatch, blobLen/4, s.dim)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Dimensions returns the configured embedding dimension.
func (s *Store) Dimensions() int {
	return s.dim
}

// Add inserts or replaces the embedding for a file.
func (s *Store) Add(ctx context.Context, fileID int64, embedding []float32) error {
	if len(embedding) != s.dim {
		return fmt.Errorf("%w: got %d dimensions, store configured for %d",
			domain.ErrDimensionMismatch, len(embedding), s.dim)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (file_id, embedding)
		VALUES (?, ?)
		ON CONFLICT(file_id) DO UPDATE SET embedding = excluded.embedding
	`, fileID, float32SliceToBytes(embedding))
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// Get retrieves the stored embedding for a file.
func (s *Store) Get(ctx context.Context, fileID int64) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT embedding FROM embeddings WHERE file_id = ?", fileID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading embedding: %w", err)
	}
	return bytesToFloat32Slice(blob), nil
}

// Has reports whether an embedding exists for the file.
func (s *Store) Has(ctx context.Context, fileID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM embeddings WHERE file_id = ?", fileID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking embedding existence: %w", err)
	}
	return count > 0, nil
}

// Search returns the k nearest rows by ascending cosine distance.
// The scan is linear today; the contract lets this switch to an ANN
// index without touching callers.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, store configured for %d",
			domain.ErrDimensionMismatch, len(query), s.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT file_id, embedding FROM embeddings")
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var fileID int64
		var blob []byte
		if err := rows.Scan(&fileID, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}

		hits = append(hits, driven.VectorHit{
			FileID:   fileID,
			Distance: cosineDistance(query, bytesToFloat32Slice(blob)),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// cosineDistance returns 1 - cosine similarity, in [0,2].
// Zero-norm vectors are maximally distant from everything.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp against float drift so distances stay inside [0,2].
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return 1 - sim
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
