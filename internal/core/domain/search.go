package domain

// SearchResult is a single ranked search hit. It is ephemeral and
// never persisted.
type SearchResult struct {
	// FileID is the matched file.
	FileID int64

	// LibraryPath is the content-addressed location of the file.
	LibraryPath string

	// Description is the stored content description.
	Description string

	// Score is the relevance score in [0,1]. Exact-match hits always
	// score 1.0; semantic hits map cosine distance d to 1 - d/2.
	Score float64

	// Type is the file type of the hit.
	Type FileType
}

// TextQuery is a full-text lookup against the mirrored index.
type TextQuery struct {
	// Term is the literal text to match.
	Term string

	// Phrase requests adjacency (phrase) matching; otherwise each
	// token must match independently.
	Phrase bool
}
