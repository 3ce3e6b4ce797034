package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

// mockStore implements the consumer KV interface for tests.
type mockStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.called++
	return m.vec, m.err
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(inner, ms, nil, zap.NewNop()), ms
}
