package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by the postgres repository.
// pgxmock pools satisfy it as well.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type postgresDocumentRepository struct {
	db      Querier
	queries documentQueries
}

// NewPostgresDocumentRepository instantiates a jsonb backed repository.
func NewPostgresDocumentRepository(db Querier) DocumentRepository {
	return &postgresDocumentRepository{db: db, queries: postgresQueries()}
}

func (r *postgresDocumentRepository) List(ctx context.Context, collection string) ([]Document, error) {
	query, args, err := r.queries.list(collection)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *postgresDocumentRepository) Get(ctx context.Context, path string) (*Document, error) {
	query, args, err := r.queries.get(path)
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}
	doc, err := scanDocument(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

func (r *postgresDocumentRepository) Count(ctx context.Context, collection string) (int, error) {
	query, args, err := r.queries.count(collection)
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *postgresDocumentRepository) Insert(ctx context.Context, doc *Document) error {
	query, args, err := r.queries.insert(doc, false)
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}
	_, err = r.db.Exec(ctx, query, args...)
	return err
}

func (r *postgresDocumentRepository) InsertIfAbsent(ctx context.Context, doc *Document) (bool, error) {
	query, args, err := r.queries.insert(doc, true)
	if err != nil {
		return false, fmt.Errorf("build insert query: %w", err)
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *postgresDocumentRepository) Merge(ctx context.Context, path string, patch json.RawMessage, updatedAt time.Time) error {
	query, args, err := r.queries.merge(path, patch, updatedAt)
	if err != nil {
		return fmt.Errorf("build merge query: %w", err)
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresDocumentRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc  Document
		data []byte
	)
	if err := row.Scan(&doc.Path, &doc.Collection, &doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Data = json.RawMessage(data)
	return &doc, nil
}
