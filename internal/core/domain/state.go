package domain

import "time"

// ProcessingState tracks how far a URL has progressed through the
// ingestion pipeline. States are keyed by URL, not by file, because a
// single URL can expand into zero or many files via archive extraction.
type ProcessingState string

// Processing states. Transitions are monotonic: a URL never moves
// backward without an external resubmission.
const (
	StatePending    ProcessingState = "pending"
	StateProcessing ProcessingState = "processing"
	StateCompleted  ProcessingState = "completed"
	StateFailed     ProcessingState = "failed"
)

// URLState is the persisted processing state for a URL.
type URLState struct {
	URL       string
	State     ProcessingState
	UpdatedAt time.Time
}
