package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/coraldata/fusiondex/internal/domain"
)

// Validator is the one-time setup check: the target collection and both
// search indexes must exist before any query is issued. The check is
// advisory and fail-fast; it takes no lock, so a collection dropped after
// validation surfaces later as a normal execution error.
type Validator struct {
	catalog CatalogReader
	logger  *zap.Logger
}

// NewValidator creates a setup validator.
func NewValidator(catalog CatalogReader, logger *zap.Logger) *Validator {
	return &Validator{catalog: catalog, logger: logger}
}

// Validate checks collection, then vector index, then text index, stopping
// at the first missing precondition and naming it.
func (v *Validator) Validate(ctx context.Context, s domain.Settings) error {
	ok, err := v.catalog.CollectionExists(ctx, s.Database, s.Collection)
	if err != nil {
		return fmt.Errorf("check collection %q: %w", s.Collection, err)
	}
	if !ok {
		return domain.NewPreconditionError(domain.PreconditionCollection, s.Collection)
	}
	v.logger.Info("Collection found",
		zap.String("database", s.Database), zap.String("collection", s.Collection))

	for _, idx := range []struct {
		check domain.Precondition
		name  string
	}{
		{domain.PreconditionVectorIndex, s.VectorIndex},
		{domain.PreconditionTextIndex, s.TextIndex},
	} {
		ok, err := v.catalog.SearchIndexExists(ctx, s.Database, s.Collection, idx.name)
		if err != nil {
			return fmt.Errorf("check %s %q: %w", idx.check, idx.name, err)
		}
		if !ok {
			return domain.NewPreconditionError(idx.check, idx.name)
		}
		v.logger.Info("Search index found",
			zap.String("collection", s.Collection), zap.String("index", idx.name))
	}

	return nil
}
