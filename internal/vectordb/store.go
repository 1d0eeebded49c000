package vectordb

import "context"

// Store defines the interface for storing and searching chunk embeddings.
type Store interface {
	// Upsert adds or replaces entries in the index. Vectors must be
	// precomputed; the store never calls an embedding provider itself.
	Upsert(ctx context.Context, entries []Entry) error

	// QueryByVector returns up to limit entries ranked by cosine
	// similarity to the query vector, most similar first.
	QueryByVector(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)

	// Delete removes the entries with the given IDs. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// Persist saves the index to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the index from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the number of entries in the index.
	Count() int
}
