package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryDocumentRepository instantiates a process local repository.
func NewMemoryDocumentRepository() DocumentRepository {
	return &memoryDocumentRepository{docs: make(map[string]Document)}
}

func (r *memoryDocumentRepository) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var docs []Document
	for _, doc := range r.docs {
		if doc.Collection == collection {
			docs = append(docs, cloneDocument(doc))
		}
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

func (r *memoryDocumentRepository) Get(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneDocument(doc)
	return &out, nil
}

func (r *memoryDocumentRepository) Count(ctx context.Context, collection string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, doc := range r.docs {
		if doc.Collection == collection {
			n++
		}
	}
	return n, nil
}

func (r *memoryDocumentRepository) Insert(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.Path]; exists {
		return fmt.Errorf("document %s already exists", doc.Path)
	}
	r.docs[doc.Path] = cloneDocument(*doc)
	return nil
}

func (r *memoryDocumentRepository) InsertIfAbsent(ctx context.Context, doc *Document) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.Path]; exists {
		return false, nil
	}
	r.docs[doc.Path] = cloneDocument(*doc)
	return true, nil
}

func (r *memoryDocumentRepository) Merge(ctx context.Context, path string, patch json.RawMessage, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return fmt.Errorf("decode patch: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[path]
	if !ok {
		return ErrNotFound
	}
	current := map[string]json.RawMessage{}
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &current); err != nil {
			return fmt.Errorf("decode document %s: %w", path, err)
		}
	}
	for k, v := range fields {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return err
	}
	doc.Data = merged
	doc.UpdatedAt = updatedAt
	r.docs[path] = doc
	return nil
}

func (r *memoryDocumentRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneDocument(doc Document) Document {
	doc.Data = append(json.RawMessage(nil), doc.Data...)
	return doc
}
