package driven

import (
	"context"

	"github.com/studykit/studyrag-cli/internal/core/domain"
)

// IndexEntry is one record in a vector collection: identifier, vector,
// chunk text and carried metadata. Entries are owned by the index and
// replaced wholesale on upsert.
type IndexEntry struct {
	// ID is unique within the collection. Convention: <source>_<chunk_index>.
	ID string

	// Vector is the embedding; its length must match the collection
	// dimension.
	Vector []float32

	// Content is the chunk text returned on query hits.
	Content string

	// Metadata contains the chunk's key-value pairs, used for filtered
	// deletes and source attribution.
	Metadata map[string]any
}

// VectorIndex is a persistent similarity store scoped to a named
// collection. Structural mutations (Upsert, Delete, Reset) are mutually
// exclusive with each other; reads may proceed concurrently.
type VectorIndex interface {
	// Upsert inserts or replaces entries by ID. The call is atomic:
	// concurrent readers observe either none or all of the batch.
	Upsert(ctx context.Context, entries []IndexEntry) error

	// Query returns up to k nearest entries by cosine distance,
	// ascending. Ties are broken by insertion order, earlier wins.
	// The result length is also capped by the configured hard maximum.
	Query(ctx context.Context, vector []float32, k int) ([]domain.RelevantChunk, error)

	// Delete removes all entries whose metadata matches filter and
	// returns the count removed. A filter matching nothing is a no-op.
	Delete(ctx context.Context, filter map[string]any) (int, error)

	// Count returns the number of entries in the collection.
	Count(ctx context.Context) (int, error)

	// Reset atomically drops and recreates an empty collection with
	// the same configuration.
	Reset(ctx context.Context) error

	// Collection returns the collection name.
	Collection() string

	// Close releases resources.
	Close() error
}
