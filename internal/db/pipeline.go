package db

import (
	"fmt"
	"strings"
)

// Stage is one step of an aggregation pipeline. The set of implementations is
// closed: exactly the stage kinds the hybrid query needs. Stages are plain
// values; a built pipeline is never mutated, only rebuilt.
type Stage interface {
	stage()
}

// Pipeline is an ordered sequence of stages.
type Pipeline []Stage

// VectorSearchStage is an approximate nearest-neighbor search over a vector
// field. Index is left empty at construction and injected by Bind.
type VectorSearchStage struct {
	Index         string
	Path          string
	QueryVector   []float32
	NumCandidates int
	Limit         int
}

// TextSearchStage is an inverted-index full-text search over a text field.
// Index is left empty at construction and injected by Bind.
type TextSearchStage struct {
	Index string
	Path  string
	Query string
}

// GroupStage groups documents by a key expression. A nil Key groups the whole
// stream into a single bucket.
type GroupStage struct {
	Key        Expr
	Accumulate []Accumulator
}

// Accumulator is one accumulated output field of a group stage.
type Accumulator struct {
	Field string
	Op    string // "$push" or "$max"
	Expr  Expr
}

// UnwindStage expands an array field back into a document stream, optionally
// recording each element's 0-based position in IncludeArrayIndex.
type UnwindStage struct {
	Path              string
	IncludeArrayIndex string
}

// AddFieldsStage adds computed fields to every document.
type AddFieldsStage struct {
	Fields []Field
}

// ProjectStage reshapes documents to the listed fields.
type ProjectStage struct {
	Fields []Field
}

// Field is one named output of a project or add-fields stage. An Expr of 1
// includes the field unchanged.
type Field struct {
	Name string
	Expr Expr
}

// UnionWithStage appends the output of a sub-pipeline run against another
// (here: the same) collection. Collection is injected by Bind, which also
// recurses into the sub-pipeline.
type UnionWithStage struct {
	Collection string
	Pipeline   Pipeline
}

// LimitStage truncates the stream to the first N documents.
type LimitStage struct {
	N int
}

// SortStage orders the stream by a single field.
type SortStage struct {
	Field      string
	Descending bool
}

func (VectorSearchStage) stage() {}
func (TextSearchStage) stage()   {}
func (GroupStage) stage()        {}
func (UnwindStage) stage()       {}
func (AddFieldsStage) stage()    {}
func (ProjectStage) stage()      {}
func (UnionWithStage) stage()    {}
func (LimitStage) stage()        {}
func (SortStage) stage()         {}

// Expr is a pipeline expression: a field reference (a string starting with
// "$"), a literal value, or one of the operator types below.
type Expr any

// Multiply multiplies its operands.
type Multiply []Expr

// Divide divides the first operand by the second.
type Divide []Expr

// Add sums its operands.
type Add []Expr

// IfNull evaluates Expr and substitutes Default when the result is missing or null.
type IfNull struct {
	Expr    Expr
	Default any
}

// Bind returns a copy of the pipeline with the vector index name injected into
// every vector search stage, the text index name into every text search stage,
// and the collection name into every union stage, recursing into nested union
// sub-pipelines at any depth. The receiver is left untouched.
func (p Pipeline) Bind(vectorIndex, textIndex, collection string) Pipeline {
	if p == nil {
		return nil
	}
	out := make(Pipeline, 0, len(p))
	for _, s := range p {
		switch st := s.(type) {
		case VectorSearchStage:
			st.Index = vectorIndex
			out = append(out, st)
		case TextSearchStage:
			st.Index = textIndex
			out = append(out, st)
		case UnionWithStage:
			st.Collection = collection
			st.Pipeline = st.Pipeline.Bind(vectorIndex, textIndex, collection)
			out = append(out, st)
		default:
			out = append(out, s)
		}
	}
	return out
}

// Summary returns one compact descriptor per stage, recursing into union
// sub-pipelines. Intended for debug logging; the query vector is elided.
func (p Pipeline) Summary() []string {
	out := make([]string, 0, len(p))
	for _, s := range p {
		out = append(out, describeStage(s))
	}
	return out
}

func describeStage(s Stage) string {
	switch st := s.(type) {
	case VectorSearchStage:
		return fmt.Sprintf("$vectorSearch(index=%s, path=%s, numCandidates=%d, limit=%d)",
			st.Index, st.Path, st.NumCandidates, st.Limit)
	case TextSearchStage:
		return fmt.Sprintf("$search(index=%s, path=%s)", st.Index, st.Path)
	case GroupStage:
		return "$group"
	case UnwindStage:
		return fmt.Sprintf("$unwind(path=%s)", st.Path)
	case AddFieldsStage:
		return "$addFields"
	case ProjectStage:
		return "$project"
	case UnionWithStage:
		return fmt.Sprintf("$unionWith(coll=%s, [%s])",
			st.Collection, strings.Join(st.Pipeline.Summary(), ", "))
	case LimitStage:
		return fmt.Sprintf("$limit(%d)", st.N)
	case SortStage:
		dir := "asc"
		if st.Descending {
			dir = "desc"
		}
		return fmt.Sprintf("$sort(%s %s)", st.Field, dir)
	default:
		return fmt.Sprintf("%T", s)
	}
}
