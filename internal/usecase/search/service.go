// Package search is the hybrid search engine: it embeds the query text,
// builds the fused retrieval pipeline, and executes it against the store.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/coraldata/fusiondex/internal/domain"
)

// Engine orchestrates one hybrid search request. It is the sole entry
// point; callers never construct pipelines directly.
type Engine struct {
	settings domain.Settings
	builder  *Builder
	embed    Embedder
	exec     Executor
	logger   *zap.Logger
}

// New creates an engine. Settings are validated once here; the engine is
// immutable afterward and safe for concurrent use.
func New(settings domain.Settings, embed Embedder, exec Executor, logger *zap.Logger) (*Engine, error) {
	builder, err := NewBuilder(settings)
	if err != nil {
		return nil, err
	}
	return &Engine{
		settings: settings,
		builder:  builder,
		embed:    embed,
		exec:     exec,
		logger:   logger,
	}, nil
}

// Search runs one weighted hybrid search for the given text and returns the
// top results with the store's execution time. Empty or whitespace-only
// input fails immediately, before any provider or store call. Errors are
// returned to the caller, which decides retry and exit policy.
func (e *Engine) Search(ctx context.Context, queryText string) (domain.SearchResult, error) {
	if strings.TrimSpace(queryText) == "" {
		return domain.SearchResult{}, fmt.Errorf("%w: query text is empty", domain.ErrInvalidQuery)
	}

	vector, err := e.embed.Embed(ctx, queryText)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("embed query: %w", err)
	}

	pipeline := e.builder.Build(queryText, vector)
	e.logger.Debug("Pipeline built",
		zap.Int("stages", len(pipeline)),
		zap.Strings("pipeline", pipeline.Summary()),
	)

	docs, elapsed, err := e.exec.Run(ctx, e.settings.Database, e.settings.Collection, pipeline)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("execute search: %w", err)
	}

	e.logger.Info("Hybrid search completed",
		zap.Int("results", len(docs)),
		zap.Duration("elapsed", elapsed),
	)

	return domain.SearchResult{Documents: docs, Elapsed: elapsed}, nil
}
