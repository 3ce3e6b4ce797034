package search

import (
	"github.com/coraldata/fusiondex/internal/db"
	"github.com/coraldata/fusiondex/internal/domain"
)

// Fusion constants. rrfK is the reciprocal-rank-fusion smoothing constant
// (Cormack et al. 2009): it damps the advantage of rank 0 over rank 1 and
// keeps the score defined and strictly decreasing in rank.
const (
	rrfK          = 60
	numCandidates = 100
	branchLimit   = 20
	fusedLimit    = 10
)

// Builder assembles the fused hybrid pipeline: two independently scored
// retrieval branches joined by a union, grouped on the text field, and
// re-ranked by the summed weighted reciprocal-rank scores.
type Builder struct {
	settings domain.Settings
}

// NewBuilder validates the settings once and returns a builder. A builder is
// immutable and safe to share across concurrent searches.
func NewBuilder(settings domain.Settings) (*Builder, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Builder{settings: settings}, nil
}

// Build constructs the complete pipeline for one query. The final Bind pass
// injects the configured index and collection names into every search and
// union stage, including stages nested inside the union's sub-pipeline.
func (b *Builder) Build(queryText string, queryVector []float32) db.Pipeline {
	s := b.settings

	p := b.vectorBranch(queryVector)
	p = append(p, db.UnionWithStage{Pipeline: b.textBranch(queryText)})
	p = append(p, b.fusionTail()...)

	return p.Bind(s.VectorIndex, s.TextIndex, s.Collection)
}

// vectorBranch produces vs_score: ANN search widened to numCandidates for
// recall, then rank assignment and reciprocal-rank scoring.
func (b *Builder) vectorBranch(queryVector []float32) db.Pipeline {
	s := b.settings
	p := db.Pipeline{
		db.VectorSearchStage{
			Path:          s.VectorField,
			QueryVector:   queryVector,
			NumCandidates: numCandidates,
			Limit:         branchLimit,
		},
	}
	p = append(p, collectRanked()...)
	return append(p,
		db.AddFieldsStage{Fields: []db.Field{
			{Name: "vs_score", Expr: rrfScore(s.VectorWeight)},
		}},
		db.ProjectStage{Fields: []db.Field{
			{Name: "vs_score", Expr: 1},
			{Name: "_id", Expr: "$docs._id"},
			{Name: s.TextField, Expr: "$docs." + s.TextField},
		}},
	)
}

// textBranch produces fts_score: full-text search over the raw query string,
// then the same rank assignment and scoring as the vector branch.
func (b *Builder) textBranch(queryText string) db.Pipeline {
	s := b.settings
	p := db.Pipeline{
		db.TextSearchStage{
			Path:  s.TextField,
			Query: queryText,
		},
		db.LimitStage{N: branchLimit},
	}
	p = append(p, collectRanked()...)
	return append(p,
		db.AddFieldsStage{Fields: []db.Field{
			{Name: "fts_score", Expr: rrfScore(s.TextWeight)},
		}},
		db.ProjectStage{Fields: []db.Field{
			{Name: "fts_score", Expr: 1},
			{Name: "_id", Expr: "$docs._id"},
			{Name: s.TextField, Expr: "$docs." + s.TextField},
		}},
	)
}

// fusionTail merges both branches. Grouping on the text field joins the
// streams; a document found by only one signal keeps the other score at 0
// rather than being excluded. That is the ranking policy, not an accident.
func (b *Builder) fusionTail() db.Pipeline {
	s := b.settings
	return db.Pipeline{
		db.GroupStage{
			Key: "$" + s.TextField,
			Accumulate: []db.Accumulator{
				{Field: "vs_score", Op: "$max", Expr: "$vs_score"},
				{Field: "fts_score", Op: "$max", Expr: "$fts_score"},
			},
		},
		db.ProjectStage{Fields: []db.Field{
			{Name: "_id", Expr: 1},
			{Name: s.TextField, Expr: "$_id"},
			{Name: "vs_score", Expr: db.IfNull{Expr: "$vs_score", Default: 0}},
			{Name: "fts_score", Expr: db.IfNull{Expr: "$fts_score", Default: 0}},
		}},
		db.ProjectStage{Fields: []db.Field{
			{Name: "score", Expr: db.Add{"$vs_score", "$fts_score"}},
			{Name: "_id", Expr: 1},
			{Name: s.TextField, Expr: 1},
			{Name: "vs_score", Expr: 1},
			{Name: "fts_score", Expr: 1},
		}},
		db.SortStage{Field: "score", Descending: true},
		db.LimitStage{N: fusedLimit},
	}
}

// collectRanked collapses the branch into one ordered list and re-expands it
// with an explicit 0-based rank per document.
func collectRanked() db.Pipeline {
	return db.Pipeline{
		db.GroupStage{
			Accumulate: []db.Accumulator{{Field: "docs", Op: "$push", Expr: "$$ROOT"}},
		},
		db.UnwindStage{Path: "$docs", IncludeArrayIndex: "rank"},
	}
}

// rrfScore is weight * (1 / (rank + rrfK)).
func rrfScore(weight float64) db.Expr {
	return db.Multiply{weight, db.Divide{1.0, db.Add{"$rank", rrfK}}}
}
