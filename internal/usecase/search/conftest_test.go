package search

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/coraldata/fusiondex/internal/db"
	"github.com/coraldata/fusiondex/internal/domain"
)

func testSettings() domain.Settings {
	return domain.Settings{
		Database:     "sample_mflix",
		Collection:   "movies_embedded_ada",
		VectorIndex:  "vectorIndex",
		TextIndex:    "searchIndex",
		VectorField:  "embedding",
		TextField:    "plot",
		VectorWeight: 0.5,
		TextWeight:   0.5,
	}
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called int
	last   string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.called++
	m.last = text
	return m.vec, m.err
}

type mockExecutor struct {
	docs    []domain.ScoredDocument
	elapsed time.Duration
	err     error
	called  int
	lastP   db.Pipeline
}

func (m *mockExecutor) Run(
	_ context.Context, _, _ string, p db.Pipeline,
) ([]domain.ScoredDocument, time.Duration, error) {
	m.called++
	m.lastP = p
	return m.docs, m.elapsed, m.err
}

type existsCall struct {
	kind string // "collection" or "index"
	name string
}

type mockCatalog struct {
	collections map[string]bool
	indexes     map[string]bool
	calls       []existsCall
}

func (m *mockCatalog) CollectionExists(_ context.Context, _, collection string) (bool, error) {
	m.calls = append(m.calls, existsCall{kind: "collection", name: collection})
	return m.collections[collection], nil
}

func (m *mockCatalog) SearchIndexExists(_ context.Context, _, _, index string) (bool, error) {
	m.calls = append(m.calls, existsCall{kind: "index", name: index})
	return m.indexes[index], nil
}

func newTestEngine(t *testing.T) (*Engine, *mockEmbedder, *mockExecutor) {
	t.Helper()
	emb := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	exec := &mockExecutor{}
	eng, err := New(testSettings(), emb, exec, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng, emb, exec
}

// walkStages visits every stage in the pipeline, recursing into union
// sub-pipelines.
func walkStages(p db.Pipeline, visit func(db.Stage)) {
	for _, s := range p {
		visit(s)
		if u, ok := s.(db.UnionWithStage); ok {
			walkStages(u.Pipeline, visit)
		}
	}
}
