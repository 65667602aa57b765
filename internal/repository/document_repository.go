package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no document exists at a path.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidPath is returned for malformed collection or document paths.
	ErrInvalidPath = errors.New("invalid document path")
)

// Document is a JSON record addressed by a slash separated path. The last
// path segment is the document id; everything before it is the collection.
type Document struct {
	Path       string
	Collection string
	ID         string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DocumentRepository encapsulates document persistence.
type DocumentRepository interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, path string) (*Document, error)
	Count(ctx context.Context, collection string) (int, error)
	Insert(ctx context.Context, doc *Document) error
	// InsertIfAbsent stores doc only when nothing exists at doc.Path and
	// reports whether it did.
	InsertIfAbsent(ctx context.Context, doc *Document) (bool, error)
	// Merge overwrites the top-level fields present in patch, leaving the
	// others untouched.
	Merge(ctx context.Context, path string, patch json.RawMessage, updatedAt time.Time) error
	Ping(ctx context.Context) error
}

// SplitPath returns the collection and id of a document path.
func SplitPath(path string) (collection, id string, err error) {
	path = strings.Trim(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return path[:idx], path[idx+1:], nil
}

// JoinPath builds a document path from a collection and an id.
func JoinPath(collection, id string) string {
	return strings.Trim(collection, "/") + "/" + id
}

// NewDocument prepares a document for insertion at collection/id.
func NewDocument(collection, id string, data json.RawMessage, now time.Time) *Document {
	collection = strings.Trim(collection, "/")
	return &Document{
		Path:       JoinPath(collection, id),
		Collection: collection,
		ID:         id,
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
