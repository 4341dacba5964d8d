package driving

import (
	"context"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// Searcher answers queries over the ingested library.
type Searcher interface {
	// Search routes the query to the exact-match or semantic backend
	// and returns results strictly ordered by descending score,
	// truncated to limit. No score-threshold filtering is applied.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}
