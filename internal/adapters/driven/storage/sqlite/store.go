// Package sqlite implements the metadata store on SQLite with an FTS5
// full-text mirror.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/librarian/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.FileStore = (*Store)(nil)

// Store is the SQLite-backed metadata store. It owns the files,
// content, and processing_state tables plus the content_fts mirror.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the metadata database inside dataDir and
// runs pending migrations.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL mode for better concurrency between the coordinator and
	// concurrent searches.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== File Records ====================

// InsertFile stores a new file record and returns its assigned ID.
// The checksum lookup and insert run in one transaction so two
// writers cannot both store the same content.
func (s *Store) InsertFile(ctx context.Context, rec *domain.FileRecord) (int64, error) {
	if rec.Checksum == "" || rec.OriginalURL == "" {
		return 0, domain.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM files WHERE checksum = ?", rec.Checksum).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("checking checksum: %w", err)
	}
	if exists > 0 {
		return 0, domain.ErrDuplicate
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO files (original_url, checksum, file_type, file_size, library_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.OriginalURL, rec.Checksum, string(rec.Type), rec.Size, rec.LibraryPath, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting file: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting file id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	rec.ID = id
	return id, nil
}

// GetFile retrieves a file record by ID.
func (s *Store) GetFile(ctx context.Context, id int64) (*domain.FileRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, original_url, checksum, file_type, file_size, library_path, created_at
		FROM files WHERE id = ?
	`, id)

	return scanFile(row)
}

// GetFileByChecksum retrieves a file record by content checksum.
func (s *Store) GetFileByChecksum(ctx context.Context, checksum string) (*domain.FileRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, original_url, checksum, file_type, file_size, library_path, created_at
		FROM files WHERE checksum = ?
	`, checksum)

	return scanFile(row)
}

// FileExists reports whether content with this checksum is stored.
func (s *Store) FileExists(ctx context.Context, checksum string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM files WHERE checksum = ?", checksum).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking file existence: %w", err)
	}
	return count > 0, nil
}

// CountFiles returns the number of stored file records.
func (s *Store) CountFiles(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return count, nil
}

// ==================== Content Records ====================

// InsertContent stores extracted content and mirrors its text fields
// into the FTS index in the same transaction.
func (s *Store) InsertContent(ctx context.Context, content *domain.ContentRecord) error {
	if content.FileID == 0 {
		return domain.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO content (file_id, extracted_text, description, is_fully_redacted, page_count)
		VALUES (?, ?, ?, ?, ?)
	`, content.FileID, nullString(content.ExtractedText), nullString(content.Description),
		boolToInt(content.IsFullyRedacted), nullInt(content.PageCount))
	if err != nil {
		return fmt.Errorf("inserting content: %w", err)
	}

	if content.ExtractedText != "" || content.Description != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO content_fts (file_id, extracted_text, description)
			VALUES (?, ?, ?)
		`, content.FileID, content.ExtractedText, content.Description)
		if err != nil {
			return fmt.Errorf("mirroring content into fts: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetContent retrieves the content record for a file.
func (s *Store) GetContent(ctx context.Context, fileID int64) (*domain.ContentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT file_id, extracted_text, description, is_fully_redacted, page_count
		FROM content WHERE file_id = ?
	`, fileID)

	var content domain.ContentRecord
	var text, desc sql.NullString
	var redacted int
	var pages sql.NullInt64
	if err := row.Scan(&content.FileID, &text, &desc, &redacted, &pages); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning content: %w", err)
	}

	content.ExtractedText = text.String
	content.Description = desc.String
	content.IsFullyRedacted = redacted != 0
	content.PageCount = int(pages.Int64)

	return &content, nil
}

// ==================== Full-Text Search ====================

// SearchText runs a full-text query against the mirrored index.
// The MATCH expression is built here, never from raw user text, so
// malformed input cannot produce an FTS5 syntax error.
func (s *Store) SearchText(ctx context.Context, query domain.TextQuery, limit int) ([]driven.TextHit, error) {
	match := buildMatchExpr(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.original_url, f.checksum, f.file_type, f.file_size, f.library_path,
		       f.created_at, COALESCE(c.description, '')
		FROM content_fts cf
		JOIN content c ON cf.file_id = c.file_id
		JOIN files f ON c.file_id = f.id
		WHERE content_fts MATCH ?
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying fts index: %w", err)
	}
	defer rows.Close()

	var hits []driven.TextHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.TextHit
		var fileType string
		if err := rows.Scan(&hit.File.ID, &hit.File.OriginalURL, &hit.File.Checksum,
			&fileType, &hit.File.Size, &hit.File.LibraryPath,
			&hit.File.CreatedAt, &hit.Description); err != nil {
			return nil, fmt.Errorf("scanning text hit: %w", err)
		}
		hit.File.Type = domain.FileType(fileType)
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating text hits: %w", err)
	}

	return hits, nil
}

// buildMatchExpr converts a TextQuery into a safe FTS5 MATCH
// expression. Phrase queries become one quoted phrase; token queries
// become implicit-AND quoted terms.
func buildMatchExpr(query domain.TextQuery) string {
	escape := func(s string) string {
		return strings.ReplaceAll(s, `"`, `""`)
	}

	term := strings.TrimSpace(query.Term)
	if term == "" {
		return ""
	}

	if query.Phrase {
		return `"` + escape(term) + `"`
	}

	tokens := strings.Fields(term)
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + escape(tok) + `"`
	}
	return strings.Join(quoted, " ")
}

// ==================== Processing State ====================

// GetState returns the processing state for a URL.
func (s *Store) GetState(ctx context.Context, url string) (*domain.URLState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT url, state, last_updated FROM processing_state WHERE url = ?
	`, url)

	var state domain.URLState
	var raw string
	var updated sql.NullTime
	if err := row.Scan(&state.URL, &raw, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning processing state: %w", err)
	}

	state.State = domain.ProcessingState(raw)
	if updated.Valid {
		state.UpdatedAt = updated.Time
	}

	return &state, nil
}

// SetState upserts the processing state for a URL.
func (s *Store) SetState(ctx context.Context, url string, state domain.ProcessingState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processing_state (url, state, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			state = excluded.state,
			last_updated = excluded.last_updated
	`, url, string(state), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving processing state: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanFile scans a single file row.
func scanFile(row *sql.Row) (*domain.FileRecord, error) {
	var rec domain.FileRecord
	var fileType string
	if err := row.Scan(&rec.ID, &rec.OriginalURL, &rec.Checksum, &fileType,
		&rec.Size, &rec.LibraryPath, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning file: %w", err)
	}
	rec.Type = domain.FileType(fileType)
	return &rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
