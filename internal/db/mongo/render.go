package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/coraldata/fusiondex/internal/db"
)

// renderPipeline converts typed stages into driver-native BSON documents.
// Field order inside each stage is preserved (bson.D, not bson.M).
func renderPipeline(p db.Pipeline) (mongo.Pipeline, error) {
	out := make(mongo.Pipeline, 0, len(p))
	for i, s := range p {
		d, err := renderStage(s)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func renderStage(s db.Stage) (bson.D, error) {
	switch st := s.(type) {
	case db.VectorSearchStage:
		return bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: st.Index},
			{Key: "path", Value: st.Path},
			{Key: "queryVector", Value: st.QueryVector},
			{Key: "numCandidates", Value: st.NumCandidates},
			{Key: "limit", Value: st.Limit},
		}}}, nil

	case db.TextSearchStage:
		return bson.D{{Key: "$search", Value: bson.D{
			{Key: "index", Value: st.Index},
			{Key: "text", Value: bson.D{
				{Key: "query", Value: st.Query},
				{Key: "path", Value: st.Path},
			}},
		}}}, nil

	case db.GroupStage:
		body := bson.D{{Key: "_id", Value: renderExpr(st.Key)}}
		for _, a := range st.Accumulate {
			body = append(body, bson.E{
				Key:   a.Field,
				Value: bson.D{{Key: a.Op, Value: renderExpr(a.Expr)}},
			})
		}
		return bson.D{{Key: "$group", Value: body}}, nil

	case db.UnwindStage:
		body := bson.D{{Key: "path", Value: st.Path}}
		if st.IncludeArrayIndex != "" {
			body = append(body, bson.E{Key: "includeArrayIndex", Value: st.IncludeArrayIndex})
		}
		return bson.D{{Key: "$unwind", Value: body}}, nil

	case db.AddFieldsStage:
		return bson.D{{Key: "$addFields", Value: renderFields(st.Fields)}}, nil

	case db.ProjectStage:
		return bson.D{{Key: "$project", Value: renderFields(st.Fields)}}, nil

	case db.UnionWithStage:
		sub, err := renderPipeline(st.Pipeline)
		if err != nil {
			return nil, fmt.Errorf("union sub-pipeline: %w", err)
		}
		return bson.D{{Key: "$unionWith", Value: bson.D{
			{Key: "coll", Value: st.Collection},
			{Key: "pipeline", Value: sub},
		}}}, nil

	case db.LimitStage:
		return bson.D{{Key: "$limit", Value: st.N}}, nil

	case db.SortStage:
		order := 1
		if st.Descending {
			order = -1
		}
		return bson.D{{Key: "$sort", Value: bson.D{{Key: st.Field, Value: order}}}}, nil

	default:
		return nil, fmt.Errorf("unknown stage type %T", s)
	}
}

func renderFields(fields []db.Field) bson.D {
	out := make(bson.D, 0, len(fields))
	for _, f := range fields {
		out = append(out, bson.E{Key: f.Name, Value: renderExpr(f.Expr)})
	}
	return out
}

// renderExpr converts an expression tree into BSON. Strings starting with "$"
// pass through as field references; everything unrecognized is a literal.
func renderExpr(e db.Expr) any {
	switch v := e.(type) {
	case db.Multiply:
		return bson.D{{Key: "$multiply", Value: renderExprs(v)}}
	case db.Divide:
		return bson.D{{Key: "$divide", Value: renderExprs(v)}}
	case db.Add:
		return bson.D{{Key: "$add", Value: renderExprs(v)}}
	case db.IfNull:
		return bson.D{{Key: "$ifNull", Value: bson.A{renderExpr(v.Expr), v.Default}}}
	default:
		return v
	}
}

func renderExprs(exprs []db.Expr) bson.A {
	out := make(bson.A, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, renderExpr(e))
	}
	return out
}
