package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
    path       TEXT PRIMARY KEY,
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    data       TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection, created_at);`

type sqliteDocumentRepository struct {
	db      *sql.DB
	queries documentQueries
}

// NewSQLiteDocumentRepository instantiates a repository on an open sqlite
// handle. EnsureSchema must have run against db first.
func NewSQLiteDocumentRepository(db *sql.DB) DocumentRepository {
	return &sqliteDocumentRepository{db: db, queries: sqliteQueries()}
}

// EnsureSchema creates the documents table when it is missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create documents schema: %w", err)
	}
	return nil
}

func (r *sqliteDocumentRepository) List(ctx context.Context, collection string) ([]Document, error) {
	query, args, err := r.queries.list(collection)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r *sqliteDocumentRepository) Get(ctx context.Context, path string) (*Document, error) {
	query, args, err := r.queries.get(path)
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

func (r *sqliteDocumentRepository) Count(ctx context.Context, collection string) (int, error) {
	query, args, err := r.queries.count(collection)
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *sqliteDocumentRepository) Insert(ctx context.Context, doc *Document) error {
	query, args, err := r.queries.insert(doc, false)
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *sqliteDocumentRepository) InsertIfAbsent(ctx context.Context, doc *Document) (bool, error) {
	query, args, err := r.queries.insert(doc, true)
	if err != nil {
		return false, fmt.Errorf("build insert query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *sqliteDocumentRepository) Merge(ctx context.Context, path string, patch json.RawMessage, updatedAt time.Time) error {
	query, args, err := r.queries.merge(path, patch, updatedAt)
	if err != nil {
		return fmt.Errorf("build merge query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteDocumentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
