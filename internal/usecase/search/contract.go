package search

import (
	"context"
	"time"

	"github.com/coraldata/fusiondex/internal/db"
	"github.com/coraldata/fusiondex/internal/domain"
)

// Embedder vectorizes query text into an embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Executor runs a fused pipeline against the store and reports execution time.
type Executor interface {
	Run(ctx context.Context, database, collection string, p db.Pipeline) ([]domain.ScoredDocument, time.Duration, error)
}

// CatalogReader checks existence of collections and search indexes.
type CatalogReader interface {
	CollectionExists(ctx context.Context, database, collection string) (bool, error)
	SearchIndexExists(ctx context.Context, database, collection, index string) (bool, error)
}
