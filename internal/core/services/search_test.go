package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// --- Mock implementations for search testing ---

// searchMockStore records the text queries it receives.
type searchMockStore struct {
	ingestMockStore

	textQueries []domain.TextQuery
	textHits    []driven.TextHit
	textErr     error
}

func newSearchMockStore() *searchMockStore {
	return &searchMockStore{ingestMockStore: *newIngestMockStore()}
}

func (m *searchMockStore) SearchText(_ context.Context, q domain.TextQuery, _ int) ([]driven.TextHit, error) {
	m.textQueries = append(m.textQueries, q)
	return m.textHits, m.textErr
}

// searchMockVectors returns preset nearest-neighbour hits.
type searchMockVectors struct {
	ingestMockVectors

	hits    []driven.VectorHit
	queried bool
}

func newSearchMockVectors() *searchMockVectors {
	return &searchMockVectors{ingestMockVectors: *newIngestMockVectors()}
}

func (m *searchMockVectors) Search(_ context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	m.queried = true
	return m.hits, nil
}

// --- Test fixture ---

type searchFixture struct {
	router  *Router
	store   *searchMockStore
	vectors *searchMockVectors
	embed   *ingestMockEmbedder
}

func newSearchFixture() *searchFixture {
	f := &searchFixture{
		store:   newSearchMockStore(),
		vectors: newSearchMockVectors(),
		embed:   &ingestMockEmbedder{},
	}
	f.router = NewRouter(f.store, f.vectors, f.embed)
	return f
}

// addFile seeds metadata and content for a semantic hit.
func (f *searchFixture) addFile(id int64, path, description string) {
	f.store.files[id] = &domain.FileRecord{
		ID:          id,
		LibraryPath: path,
		Type:        domain.FileTypeText,
	}
	f.store.content[id] = &domain.ContentRecord{FileID: id, Description: description}
}

// --- Routing ---

func TestRouteQuotedPhraseGoesExact(t *testing.T) {
	f := newSearchFixture()

	_, err := f.router.Search(context.Background(), `find "exact phrase" here`, 10)
	require.NoError(t, err)

	require.Len(t, f.store.textQueries, 1)
	assert.Equal(t, "exact phrase", f.store.textQueries[0].Term)
	assert.True(t, f.store.textQueries[0].Phrase)
	assert.False(t, f.vectors.queried)
}

func TestRouteContainsKeywordGoesExact(t *testing.T) {
	f := newSearchFixture()

	query := "list of items that CONTAINS dog"
	_, err := f.router.Search(context.Background(), query, 10)
	require.NoError(t, err)

	// The whole original query is the term, not just the keyword's tail.
	require.Len(t, f.store.textQueries, 1)
	assert.Equal(t, query, f.store.textQueries[0].Term)
	assert.False(t, f.store.textQueries[0].Phrase)
}

func TestRoutePhraseKeywordGoesExact(t *testing.T) {
	f := newSearchFixture()

	_, err := f.router.Search(context.Background(), "documents with the phrase hello world", 10)
	require.NoError(t, err)

	require.Len(t, f.store.textQueries, 1)
	assert.False(t, f.vectors.queried)
}

func TestRouteDefaultGoesSemantic(t *testing.T) {
	f := newSearchFixture()

	_, err := f.router.Search(context.Background(), "photos of mountains", 10)
	require.NoError(t, err)

	assert.Empty(t, f.store.textQueries)
	assert.True(t, f.vectors.queried)
	assert.Equal(t, 1, f.embed.calls)
}

func TestRouteUnmatchedQuoteFallsThrough(t *testing.T) {
	f := newSearchFixture()

	_, err := f.router.Search(context.Background(), `photos of "mountains`, 10)
	require.NoError(t, err)

	assert.Empty(t, f.store.textQueries)
	assert.True(t, f.vectors.queried)
}

func TestRouteIsDeterministic(t *testing.T) {
	for _, tc := range []struct {
		query string
		exact bool
	}{
		{`"quoted"`, true},
		{"text that contains cat", true},
		{"a phrase about dogs", true},
		{"mountain sunsets", false},
		{"Contains", true},
	} {
		for i := 0; i < 3; i++ {
			_, exact := routeQuery(tc.query)
			assert.Equal(t, tc.exact, exact, "query %q run %d", tc.query, i)
		}
	}
}

// --- Scoring and results ---

func TestExactHitsScoreOne(t *testing.T) {
	f := newSearchFixture()
	f.store.textHits = []driven.TextHit{
		{File: domain.FileRecord{ID: 1, LibraryPath: "text/aaa.txt", Type: domain.FileTypeText}, Description: "first"},
		{File: domain.FileRecord{ID: 2, LibraryPath: "text/bbb.txt", Type: domain.FileTypeText}, Description: "second"},
	}

	results, err := f.router.Search(context.Background(), `"needle"`, 10)
	require.NoError(t, err)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 1.0, r.Score)
	}
	assert.Equal(t, "first", results[0].Description)
}

func TestSemanticScoreMapping(t *testing.T) {
	f := newSearchFixture()
	f.addFile(1, "text/near.txt", "near")
	f.addFile(2, "text/mid.txt", "mid")
	f.addFile(3, "text/far.txt", "far")
	f.vectors.hits = []driven.VectorHit{
		{FileID: 1, Distance: 0},
		{FileID: 2, Distance: 1},
		{FileID: 3, Distance: 2},
	}

	results, err := f.router.Search(context.Background(), "anything semantic", 10)
	require.NoError(t, err)

	// d=0 -> 1.0, d=1 -> 0.5, d=2 -> 0.0, descending.
	require.Len(t, results, 3)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 0.5, results[1].Score)
	assert.Equal(t, 0.0, results[2].Score)
	assert.Equal(t, int64(1), results[0].FileID)
	assert.Equal(t, int64(3), results[2].FileID)
}

func TestSemanticNoThresholdFiltering(t *testing.T) {
	f := newSearchFixture()
	f.addFile(1, "text/weak.txt", "weak match")
	f.vectors.hits = []driven.VectorHit{{FileID: 1, Distance: 1.9}}

	results, err := f.router.Search(context.Background(), "barely related", 10)
	require.NoError(t, err)

	// Even a near-opposite hit is returned; ranking is the signal.
	require.Len(t, results, 1)
	assert.InDelta(t, 0.05, results[0].Score, 1e-9)
}

func TestSemanticSkipsMissingMetadata(t *testing.T) {
	f := newSearchFixture()
	f.addFile(1, "text/present.txt", "present")
	f.vectors.hits = []driven.VectorHit{
		{FileID: 99, Distance: 0.1}, // no metadata row
		{FileID: 1, Distance: 0.5},
	}

	results, err := f.router.Search(context.Background(), "find things", 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].FileID)
}

func TestSemanticHitWithoutContent(t *testing.T) {
	f := newSearchFixture()
	f.store.files[1] = &domain.FileRecord{ID: 1, LibraryPath: "images/img.png", Type: domain.FileTypeImage}
	f.vectors.hits = []driven.VectorHit{{FileID: 1, Distance: 0.4}}

	results, err := f.router.Search(context.Background(), "sunset photo", 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Empty(t, results[0].Description)
}

func TestSemanticWithoutEmbedder(t *testing.T) {
	f := newSearchFixture()
	f.router = NewRouter(f.store, f.vectors, nil)

	_, err := f.router.Search(context.Background(), "needs a model", 10)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newSearchFixture()

	results, err := f.router.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, f.store.textQueries)
	assert.False(t, f.vectors.queried)
}

func TestSearchTruncatesToLimit(t *testing.T) {
	f := newSearchFixture()
	for i := int64(1); i <= 5; i++ {
		f.addFile(i, "text/file.txt", "doc")
		f.vectors.hits = append(f.vectors.hits, driven.VectorHit{FileID: i, Distance: float64(i) * 0.1})
	}

	results, err := f.router.Search(context.Background(), "many documents", 3)
	require.NoError(t, err)

	require.Len(t, results, 3)
	// Best three survive the cut.
	assert.Equal(t, int64(1), results[0].FileID)
	assert.Equal(t, int64(3), results[2].FileID)
}

func TestSearchTextErrorPropagates(t *testing.T) {
	f := newSearchFixture()
	f.store.textErr = errors.New("index corrupt")

	_, err := f.router.Search(context.Background(), `"anything"`, 10)
	assert.Error(t, err)
}
