package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// setupTestStore creates a store backed by a temp directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func testFileRecord(checksum string) *domain.FileRecord {
	return &domain.FileRecord{
		OriginalURL: "http://example.com/" + checksum,
		Checksum:    checksum,
		Type:        domain.FileTypeText,
		Size:        42,
		LibraryPath: "text/" + checksum + ".txt",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestInsertAndGetFile(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.InsertFile(ctx, testFileRecord("abc123"))
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := store.GetFile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.Checksum)
	assert.Equal(t, domain.FileTypeText, got.Type)
	assert.Equal(t, int64(42), got.Size)
	assert.Equal(t, "text/abc123.txt", got.LibraryPath)
}

func TestInsertFileAssignsSequentialIDs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.InsertFile(ctx, testFileRecord("aaa"))
	require.NoError(t, err)
	second, err := store.InsertFile(ctx, testFileRecord("bbb"))
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestInsertFileDuplicateChecksum(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.InsertFile(ctx, testFileRecord("same"))
	require.NoError(t, err)

	// Same content from a different URL is still a duplicate.
	dupe := testFileRecord("same")
	dupe.OriginalURL = "http://other.example.com/copy"
	_, err = store.InsertFile(ctx, dupe)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	count, err := store.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertFileValidation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.InsertFile(ctx, &domain.FileRecord{OriginalURL: "http://example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetFileNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetFile(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetFileByChecksum(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.InsertFile(ctx, testFileRecord("findme"))
	require.NoError(t, err)

	got, err := store.GetFileByChecksum(ctx, "findme")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	exists, err := store.FileExists(ctx, "findme")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.FileExists(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInsertAndGetContent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.InsertFile(ctx, testFileRecord("withcontent"))
	require.NoError(t, err)

	content := &domain.ContentRecord{
		FileID:        id,
		ExtractedText: "the quick brown fox",
		Description:   "Text document: the quick brown fox",
		PageCount:     3,
	}
	require.NoError(t, store.InsertContent(ctx, content))

	got, err := store.GetContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "the quick brown fox", got.ExtractedText)
	assert.Equal(t, 3, got.PageCount)
	assert.False(t, got.IsFullyRedacted)
}

func TestGetContentNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetContent(context.Background(), 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInsertContentRequiresFileID(t *testing.T) {
	store := setupTestStore(t)

	err := store.InsertContent(context.Background(), &domain.ContentRecord{Description: "orphan"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchTextTokens(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	docs := map[string]string{
		"doc1": "cats and dogs living together",
		"doc2": "dogs chasing mail carriers",
		"doc3": "a treatise on fish",
	}
	for checksum, text := range docs {
		id, err := store.InsertFile(ctx, testFileRecord(checksum))
		require.NoError(t, err)
		require.NoError(t, store.InsertContent(ctx, &domain.ContentRecord{
			FileID:        id,
			ExtractedText: text,
			Description:   text,
		}))
	}

	hits, err := store.SearchText(ctx, domain.TextQuery{Term: "dogs"}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	// Implicit AND: both tokens must match.
	hits, err = store.SearchText(ctx, domain.TextQuery{Term: "dogs cats"}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchTextPhrase(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for checksum, text := range map[string]string{
		"adjacent": "the red house on the hill",
		"split":    "the house was painted red",
	} {
		id, err := store.InsertFile(ctx, testFileRecord(checksum))
		require.NoError(t, err)
		require.NoError(t, store.InsertContent(ctx, &domain.ContentRecord{
			FileID:        id,
			ExtractedText: text,
		}))
	}

	hits, err := store.SearchText(ctx, domain.TextQuery{Term: "red house", Phrase: true}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "adjacent", hits[0].File.Checksum)
}

func TestSearchTextMalformedInput(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// FTS5 operator characters in user text must not cause syntax
	// errors.
	for _, term := range []string{`AND OR NOT`, `"unbalanced`, `col:value`, `(paren`} {
		_, err := store.SearchText(ctx, domain.TextQuery{Term: term}, 10)
		assert.NoError(t, err, "term %q", term)
		_, err = store.SearchText(ctx, domain.TextQuery{Term: term, Phrase: true}, 10)
		assert.NoError(t, err, "phrase %q", term)
	}
}

func TestSearchTextEmptyTerm(t *testing.T) {
	store := setupTestStore(t)

	hits, err := store.SearchText(context.Background(), domain.TextQuery{Term: "   "}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchTextRespectsLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, checksum := range []string{"l1", "l2", "l3"} {
		id, err := store.InsertFile(ctx, testFileRecord(checksum))
		require.NoError(t, err)
		require.NoError(t, store.InsertContent(ctx, &domain.ContentRecord{
			FileID:        id,
			ExtractedText: "common keyword everywhere",
		}))
	}

	hits, err := store.SearchText(ctx, domain.TextQuery{Term: "keyword"}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestBuildMatchExpr(t *testing.T) {
	tests := []struct {
		name  string
		query domain.TextQuery
		want  string
	}{
		{"phrase", domain.TextQuery{Term: "red house", Phrase: true}, `"red house"`},
		{"tokens", domain.TextQuery{Term: "red house"}, `"red" "house"`},
		{"escapes quotes", domain.TextQuery{Term: `say "hi"`, Phrase: true}, `"say ""hi"""`},
		{"empty", domain.TextQuery{Term: "  "}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildMatchExpr(tt.query))
		})
	}
}

func TestProcessingStateLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	url := "http://example.com/archive.zip"

	_, err := store.GetState(ctx, url)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SetState(ctx, url, domain.StateProcessing))
	state, err := store.GetState(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, domain.StateProcessing, state.State)

	// Upsert replaces, never duplicates.
	require.NoError(t, store.SetState(ctx, url, domain.StateCompleted))
	state, err = store.GetState(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, state.State)
	assert.False(t, state.UpdatedAt.IsZero())
}

func TestStoreReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	id, err := store.InsertFile(ctx, testFileRecord("persist"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs migrations idempotently and keeps the data.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetFile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "persist", got.Checksum)
}
