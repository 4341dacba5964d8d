package domain

// ContentRecord holds the searchable content extracted from a file.
// It is written once per file and never updated in place; its text
// fields are mirrored into the full-text index in the same step.
type ContentRecord struct {
	// FileID is the owning FileRecord.
	FileID int64

	// ExtractedText is the full extracted text, empty when the file
	// has no extractable text (images, scanned PDFs).
	ExtractedText string

	// Description is a short human-readable summary used in search
	// results and as the embedding fallback text.
	Description string

	// IsFullyRedacted marks documents whose every page was redacted.
	IsFullyRedacted bool

	// PageCount is the number of pages for paginated formats, zero
	// otherwise.
	PageCount int
}

// EmbedText picks the text an embedding should be generated from:
// extracted text truncated to maxChars, falling back to the
// description. Empty means there is nothing to embed, which is a
// valid state, not an error.
func (c *ContentRecord) EmbedText(maxChars int) string {
	if c.ExtractedText != "" {
		if maxChars > 0 && len(c.ExtractedText) > maxChars {
			return c.ExtractedText[:maxChars]
		}
		return c.ExtractedText
	}
	return c.Description
}
