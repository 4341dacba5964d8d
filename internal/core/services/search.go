package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
	"github.com/custodia-labs/librarian/internal/core/ports/driving"
	"github.com/custodia-labs/librarian/internal/logger"
)

// Ensure Router implements the driving port.
var _ driving.Searcher = (*Router)(nil)

// DefaultSearchLimit is applied when the caller passes no limit.
const DefaultSearchLimit = 10

// Router routes each query to exactly one backend: the full-text index
// for exact-match intent, the vector index for everything else. Routing
// is a pure function of the query text, so identical queries always
// take the same path.
type Router struct {
	files    driven.FileStore
	vectors  driven.VectorIndex
	embedder driven.EmbeddingService
}

// NewRouter creates a retrieval router. The embedder may be nil, in
// which case semantic queries fail with ErrEmbeddingUnavailable.
func NewRouter(files driven.FileStore, vectors driven.VectorIndex, embedder driven.EmbeddingService) *Router {
	return &Router{
		files:    files,
		vectors:  vectors,
		embedder: embedder,
	}
}

// Search answers a query with results strictly ordered by descending
// score, truncated to limit. No score-threshold filtering is applied;
// ranking is the caller's signal.
func (r *Router) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if tq, exact := routeQuery(query); exact {
		return r.exactSearch(ctx, tq, limit)
	}
	return r.semanticSearch(ctx, query, limit)
}

// routeQuery decides the backend. A double-quoted span routes to exact
// phrase match on the quoted text only; the keywords "contains" or
// "phrase" route the whole query to exact match; everything else is
// semantic. Quote detection runs first.
func routeQuery(query string) (domain.TextQuery, bool) {
	if open := strings.Index(query, `"`); open >= 0 {
		rest := query[open+1:]
		if end := strings.Index(rest, `"`); end >= 0 {
			return domain.TextQuery{Term: rest[:end], Phrase: true}, true
		}
		// An unmatched quote carries no phrase intent.
	}

	lower := strings.ToLower(query)
	if strings.Contains(lower, "contains") || strings.Contains(lower, "phrase") {
		return domain.TextQuery{Term: query}, true
	}

	return domain.TextQuery{}, false
}

// exactSearch runs the query against the full-text index. Exact hits
// are binary: every hit scores 1.0.
func (r *Router) exactSearch(ctx context.Context, tq domain.TextQuery, limit int) ([]domain.SearchResult, error) {
	hits, err := r.files.SearchText(ctx, tq, limit)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.SearchResult{
			FileID:      hit.File.ID,
			LibraryPath: hit.File.LibraryPath,
			Description: hit.Description,
			Score:       1.0,
			Type:        hit.File.Type,
		})
	}
	return results, nil
}

// semanticSearch embeds the query and ranks by vector similarity.
// Cosine distance d in [0,2] maps to score 1 - d/2. Vector hits whose
// metadata has gone missing are skipped, not errors; the stores are not
// transactionally joined.
func (r *Router) semanticSearch(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := r.vectors.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		file, err := r.files.GetFile(ctx, hit.FileID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Vector hit %d has no metadata, skipping", hit.FileID)
				continue
			}
			return nil, fmt.Errorf("loading file %d: %w", hit.FileID, err)
		}

		description := ""
		content, err := r.files.GetContent(ctx, hit.FileID)
		switch {
		case err == nil:
			description = content.Description
		case errors.Is(err, domain.ErrNotFound):
			// A file stored without content is still a valid hit.
		default:
			return nil, fmt.Errorf("loading content %d: %w", hit.FileID, err)
		}

		results = append(results, domain.SearchResult{
			FileID:      file.ID,
			LibraryPath: file.LibraryPath,
			Description: description,
			Score:       1.0 - hit.Distance/2.0,
			Type:        file.Type,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
