// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). The ingestion coordinator and retrieval
// router depend only on these contracts, never on concrete adapters.
package driven
