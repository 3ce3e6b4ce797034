// Package search executes fused pipelines against the document store and
// decodes the ordered results.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coraldata/fusiondex/internal/db"
	"github.com/coraldata/fusiondex/internal/domain"
	"github.com/coraldata/fusiondex/internal/metrics"
)

// store is the consumer interface for pipeline execution.
type store interface {
	Aggregate(ctx context.Context, database, collection string, p db.Pipeline) ([]db.Document, error)
}

// Repo submits pipelines to the store, measures wall-clock execution time,
// and maps raw result documents to scored documents.
type Repo struct {
	store     store
	textField string
	logger    *zap.Logger
}

// New creates an executor. textField names the document field carrying the
// result text (and the fusion join key).
func New(s store, textField string, logger *zap.Logger) *Repo {
	return &Repo{store: s, textField: textField, logger: logger}
}

// Run executes the pipeline as one atomic request. On store failure no
// partial results are returned; the error carries the store's diagnostic.
func (r *Repo) Run(
	ctx context.Context, database, collection string, p db.Pipeline,
) ([]domain.ScoredDocument, time.Duration, error) {
	start := time.Now()
	raw, err := r.store.Aggregate(ctx, database, collection, p)
	elapsed := time.Since(start)

	if err != nil {
		metrics.QueryRequestsTotal.WithLabelValues("error").Inc()
		return nil, 0, domain.NewExecutionError(database, collection, err)
	}

	metrics.QueryRequestsTotal.WithLabelValues("success").Inc()
	metrics.QueryDuration.Observe(elapsed.Seconds())
	metrics.QueryResults.Observe(float64(len(raw)))

	docs := make([]domain.ScoredDocument, 0, len(raw))
	for _, d := range raw {
		docs = append(docs, r.decode(d))
	}

	r.logger.Debug("Pipeline executed",
		zap.String("namespace", database+"."+collection),
		zap.Int("results", len(docs)),
		zap.Duration("elapsed", elapsed),
	)

	return docs, elapsed, nil
}

// decode maps one raw result row to a scored document. A score missing from
// the row defaults to 0: the document was found by only one signal.
func (r *Repo) decode(d db.Document) domain.ScoredDocument {
	vs := asFloat(d["vs_score"])
	fts := asFloat(d["fts_score"])

	score, ok := d["score"]
	total := asFloat(score)
	if !ok {
		total = vs + fts
	}

	return domain.ScoredDocument{
		ID:       asString(d["_id"]),
		Text:     asString(d[r.textField]),
		VSScore:  vs,
		FTSScore: fts,
		Score:    total,
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asFloat accepts every numeric type the store's decoder may produce.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
