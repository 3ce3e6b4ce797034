// Package chi exposes the hybrid search engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coraldata/fusiondex/internal/domain"
)

// SearchEngine is the consumer interface for the search endpoint.
type SearchEngine interface {
	Search(ctx context.Context, queryText string) (domain.SearchResult, error)
}

// Pinger checks store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers.
type Server struct {
	engine SearchEngine
	store  Pinger
	logger *zap.Logger
}

// NewServer creates the HTTP transport.
func NewServer(engine SearchEngine, store Pinger, logger *zap.Logger) *Server {
	return &Server{engine: engine, store: store, logger: logger}
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/v1/search", s.handleSearch)
	r.Get("/health", s.handleHealth)
}

type searchHit struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	VSScore  float64 `json:"vs_score"`
	FTSScore float64 `json:"fts_score"`
	Score    float64 `json:"score"`
}

type searchResponse struct {
	Results        []searchHit `json:"results"`
	Count          int         `json:"count"`
	ElapsedSeconds float64     `json:"elapsed_seconds"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	result, err := s.engine.Search(r.Context(), query)
	if err != nil {
		s.writeSearchError(w, query, err)
		return
	}

	hits := make([]searchHit, 0, len(result.Documents))
	for _, d := range result.Documents {
		hits = append(hits, searchHit{
			ID:       d.ID,
			Text:     d.Text,
			VSScore:  d.VSScore,
			FTSScore: d.FTSScore,
			Score:    d.Score,
		})
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results:        hits,
		Count:          len(hits),
		ElapsedSeconds: result.Elapsed.Seconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("Health check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeSearchError maps domain errors to HTTP statuses. Collaborator
// failures are gateway errors; an invalid query is the caller's fault.
func (s *Server) writeSearchError(w http.ResponseWriter, query string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEmbeddingProvider), errors.Is(err, domain.ErrExecution):
		s.logger.Error("Search failed", zap.String("query", query), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("Search failed", zap.String("query", query), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
