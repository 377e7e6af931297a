package faq

import (
	"context"
)

// VectorStore is the persisted collection of FAQ entries.
type VectorStore interface {
	// Count returns the number of entries in the collection.
	Count(ctx context.Context) (int, error)
	// MaxID returns the largest numeric entry id, or 0 for an empty collection.
	MaxID(ctx context.Context) (int64, error)
	// Populate inserts entries only when the collection is empty and reports
	// whether it did. Backends with transactions insert all entries or none.
	Populate(ctx context.Context, entries []Entry) (bool, error)
	// Add inserts entries unconditionally.
	Add(ctx context.Context, entries []Entry) error
	// Query returns up to k entries ordered by ascending cosine distance.
	Query(ctx context.Context, embedding []float32, k int) ([]Match, error)
	Close() error
}

// Embedder produces embeddings for free form text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// DatasetSource loads the named dataset split used to seed the collection.
type DatasetSource interface {
	Load(ctx context.Context, name, split string) ([]Record, error)
}

// Locker serialises population across goroutines and, depending on the
// implementation, across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// QueryStats tracks how often normalized queries are searched.
type QueryStats interface {
	IncrementQuery(ctx context.Context, canonical, display string) error
	TopQueries(ctx context.Context, limit int) ([]TrendingQuery, error)
}
