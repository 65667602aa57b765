package repository

import (
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const documentsTable = "documents"

var documentColumns = []string{"path", "collection", "id", "data", "created_at", "updated_at"}

// documentQueries builds the SQL shared by the postgres and sqlite
// repositories. Only the placeholder format and the JSON merge expression
// differ between the two.
type documentQueries struct {
	builder   sq.StatementBuilderType
	mergeExpr func(patch string) sq.Sqlizer
}

func postgresQueries() documentQueries {
	return documentQueries{
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		mergeExpr: func(patch string) sq.Sqlizer {
			return sq.Expr("data || ?::jsonb", patch)
		},
	}
}

func sqliteQueries() documentQueries {
	return documentQueries{
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		mergeExpr: func(patch string) sq.Sqlizer {
			return sq.Expr("json_patch(data, ?)", patch)
		},
	}
}

func (q documentQueries) list(collection string) (string, []any, error) {
	return q.builder.Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"collection": collection}).
		OrderBy("created_at", "id").
		ToSql()
}

func (q documentQueries) get(path string) (string, []any, error) {
	return q.builder.Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"path": path}).
		ToSql()
}

func (q documentQueries) count(collection string) (string, []any, error) {
	return q.builder.Select("COUNT(*)").
		From(documentsTable).
		Where(sq.Eq{"collection": collection}).
		ToSql()
}

func (q documentQueries) insert(doc *Document, ifAbsent bool) (string, []any, error) {
	stmt := q.builder.Insert(documentsTable).
		Columns(documentColumns...).
		Values(doc.Path, doc.Collection, doc.ID, string(doc.Data), doc.CreatedAt, doc.UpdatedAt)
	if ifAbsent {
		stmt = stmt.Suffix("ON CONFLICT (path) DO NOTHING")
	}
	return stmt.ToSql()
}

func (q documentQueries) merge(path string, patch json.RawMessage, updatedAt time.Time) (string, []any, error) {
	return q.builder.Update(documentsTable).
		Set("data", q.mergeExpr(string(patch))).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"path": path}).
		ToSql()
}
