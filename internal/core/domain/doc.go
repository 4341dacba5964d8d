// Package domain contains the core business entities and errors for the
// librarian. Types here have no dependencies on adapters or infrastructure.
package domain
