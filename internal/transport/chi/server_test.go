package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coraldata/fusiondex/internal/domain"
)

type mockEngine struct {
	result domain.SearchResult
	err    error
	last   string
}

func (m *mockEngine) Search(_ context.Context, q string) (domain.SearchResult, error) {
	m.last = q
	return m.result, m.err
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func newTestServer(engine *mockEngine, store *mockPinger) *chi.Mux {
	r := chi.NewRouter()
	NewServer(engine, store, zap.NewNop()).Register(r)
	return r
}

func TestHandleSearch_OK(t *testing.T) {
	engine := &mockEngine{result: domain.SearchResult{
		Documents: []domain.ScoredDocument{
			{ID: "m1", Text: "a space odyssey", VSScore: 0.0083, FTSScore: 0.0083, Score: 0.0166},
		},
		Elapsed: 120 * time.Millisecond,
	}}
	r := newTestServer(engine, &mockPinger{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=space+adventure", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if engine.last != "space adventure" {
		t.Errorf("engine received query %q", engine.last)
	}

	var resp searchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Results) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Results[0].Score != 0.0166 {
		t.Errorf("score = %v", resp.Results[0].Score)
	}
	if resp.ElapsedSeconds != 0.12 {
		t.Errorf("elapsed_seconds = %v", resp.ElapsedSeconds)
	}
}

func TestHandleSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid query", domain.ErrInvalidQuery, http.StatusBadRequest},
		{"embedding failure", domain.ErrEmbeddingProvider, http.StatusBadGateway},
		{"execution failure", domain.NewExecutionError("d", "c", context.DeadlineExceeded), http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestServer(&mockEngine{err: tc.err}, &mockPinger{})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=x", http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := newTestServer(&mockEngine{}, &mockPinger{})
		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	})

	t.Run("store down", func(t *testing.T) {
		r := newTestServer(&mockEngine{}, &mockPinger{err: context.DeadlineExceeded})
		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", rr.Code)
		}
	})
}

func TestBearerAuth(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	r := chi.NewRouter()
	r.Use(BearerAuthMiddleware([]string{"secret"}))
	r.Get("/api/v1/search", handler)
	r.Get("/health", handler)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/api/v1/search", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/v1/search", "Basic secret", http.StatusUnauthorized},
		{"bad key", "/api/v1/search", "Bearer nope", http.StatusUnauthorized},
		{"good key", "/api/v1/search", "Bearer secret", http.StatusOK},
		{"health exempt", "/health", "", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
		})
	}
}
