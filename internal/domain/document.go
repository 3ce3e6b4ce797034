package domain

import "time"

// ScoredDocument is one fused search hit. Both branch scores default to 0
// when the document was found by only one signal; Score is always their sum.
type ScoredDocument struct {
	ID       string
	Text     string
	VSScore  float64
	FTSScore float64
	Score    float64
}

// SearchResult is the ordered outcome of one hybrid search: documents sorted
// by Score descending, truncated by the pipeline's final limit, plus the
// wall-clock time the store spent executing the pipeline.
type SearchResult struct {
	Documents []ScoredDocument
	Elapsed   time.Duration
}
