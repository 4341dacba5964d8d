package driving

import "context"

// Coordinator drives the ingestion pipeline.
type Coordinator interface {
	// Ingest processes each URL through download, extraction,
	// classification, dedup, content processing, persistence, and
	// embedding, and returns the number of files newly stored.
	// Per-URL failures are recorded in processing state, never
	// returned as errors. When cleanupAfter is set, staging artifacts
	// are removed after the run.
	Ingest(ctx context.Context, urls []string, cleanupAfter bool) (int, error)
}
