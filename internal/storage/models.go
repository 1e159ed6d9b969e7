package storage

import "context"

// Record is one embedded passage inside an index collection.
type Record struct {
	ID         string  // UUID
	Text       string  // Passage content, embedded by the store
	PageNumber int     // Source page, 0-based
	Score      float32 // Similarity to the query; only set on query results
}

// IndexStore persists records as vector-embedded collections keyed by name.
// Embedding text into vectors is the store's own responsibility.
type IndexStore interface {
	// ReplaceCollection atomically swaps the named collection for one holding
	// exactly records. Readers see either the previous collection or the new
	// one, never a partially written one. On failure the collection is absent
	// and the error wraps ErrIndexWrite.
	ReplaceCollection(ctx context.Context, name string, records []Record) error

	// DeleteCollection removes the named collection. Missing collections are not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Query returns up to k records ordered by decreasing similarity to queryText.
	// Returns ErrCollectionNotFound if the collection does not exist.
	Query(ctx context.Context, name, queryText string, k int) ([]Record, error)

	CollectionExists(ctx context.Context, name string) (bool, error)

	// CountRecords returns the number of records in the named collection.
	CountRecords(ctx context.Context, name string) (uint64, error)

	// Health reports whether the backing store is reachable.
	Health(ctx context.Context) error
}

// upsertBatchSize bounds the number of points per write request.
const upsertBatchSize = 100
