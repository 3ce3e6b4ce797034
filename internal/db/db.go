// Package db defines the document store boundary: the Store facade the
// engine talks to and the staged aggregation pipeline it submits.
package db

import "context"

// Store is the main document database facade combining all sub-interfaces.
// Implementations must be safe for concurrent use.
type Store interface {
	Pinger
	CatalogReader
	Aggregator
	Close(ctx context.Context) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CatalogReader checks existence of collections and search indexes.
type CatalogReader interface {
	CollectionExists(ctx context.Context, database, collection string) (bool, error)
	SearchIndexExists(ctx context.Context, database, collection, index string) (bool, error)
}

// Aggregator executes a staged pipeline against a collection as one atomic
// request and returns the ordered result documents.
type Aggregator interface {
	Aggregate(ctx context.Context, database, collection string, p Pipeline) ([]Document, error)
}

// Document is one result row, a mapping from field name to value.
type Document map[string]any

// KVStore provides simple key-value operations (used by the embedding cache).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
