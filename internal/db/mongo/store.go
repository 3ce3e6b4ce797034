// Package mongo implements db.Store against MongoDB Atlas.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/coraldata/fusiondex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a MongoDB store.
type Config struct {
	URI     string
	AppName string
}

// Store implements db.Store via the official MongoDB driver.
type Store struct {
	client *mongo.Client
}

// NewStore creates a MongoDB store. The connection is established lazily;
// call Ping or WaitForReady to verify reachability.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("uri is required")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.AppName != "" {
		opts = opts.SetAppName(cfg.AppName)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// Ping checks connectivity against the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// CollectionExists reports whether the named collection exists in the database.
func (s *Store) CollectionExists(ctx context.Context, database, collection string) (bool, error) {
	names, err := s.client.Database(database).
		ListCollectionNames(ctx, bson.D{{Key: "name", Value: collection}})
	if err != nil {
		return false, fmt.Errorf("list collections in %s: %w", database, err)
	}
	return len(names) > 0, nil
}

// SearchIndexExists reports whether the named Atlas search index exists on the
// collection. Both vector and text search indexes live in the same catalog.
func (s *Store) SearchIndexExists(ctx context.Context, database, collection, index string) (bool, error) {
	coll := s.client.Database(database).Collection(collection)

	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$listSearchIndexes", Value: bson.D{{Key: "name", Value: index}}}},
	})
	if err != nil {
		return false, fmt.Errorf("list search indexes on %s.%s: %w", database, collection, err)
	}

	var indexes []bson.M
	if err := cursor.All(ctx, &indexes); err != nil {
		return false, fmt.Errorf("decode search indexes on %s.%s: %w", database, collection, err)
	}
	return len(indexes) > 0, nil
}

// Aggregate renders the staged pipeline to BSON, executes it as one request,
// and returns the ordered result documents.
func (s *Store) Aggregate(ctx context.Context, database, collection string, p db.Pipeline) ([]db.Document, error) {
	stages, err := renderPipeline(p)
	if err != nil {
		return nil, fmt.Errorf("render pipeline: %w", err)
	}

	coll := s.client.Database(database).Collection(collection)
	cursor, err := coll.Aggregate(ctx, stages)
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	docs := make([]db.Document, len(raw))
	for i, m := range raw {
		docs[i] = db.Document(m)
	}
	return docs, nil
}
