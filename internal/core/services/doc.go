// Package services contains the core application logic: the ingestion
// coordinator and the retrieval router. Services depend only on domain
// types and ports, never on concrete adapters.
package services
