package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sync/internal/events"
	"github.com/spec-kit/helpdesk-sync/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

// CollectionSnapshot is the full content of a collection at one moment, or
// the fault that prevented reading it.
type CollectionSnapshot struct {
	Documents []repository.Document
	Err       error
}

// DocumentSnapshot is the content of one document. Exists is false when
// nothing is stored at the path.
type DocumentSnapshot struct {
	Document repository.Document
	Exists   bool
	Err      error
}

// SubscribeCollection streams a snapshot of collection immediately and again
// after every change. Notifications that arrive while a snapshot is being
// read are coalesced into one reload. The channel closes when ctx ends.
func (s *Store) SubscribeCollection(ctx context.Context, collection string) (<-chan CollectionSnapshot, error) {
	if collection == "" {
		return nil, apperrors.NewValidationError("collection path is required", nil)
	}
	dirty, unsubscribe, err := s.watch(ctx, collection, "")
	if err != nil {
		return nil, err
	}

	out := make(chan CollectionSnapshot)
	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
			}

			snapshot := s.readCollection(ctx, collection)
			if snapshot.Err != nil && ctx.Err() != nil {
				return
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// SubscribeDocument streams the document at path immediately and again after
// every change to it.
func (s *Store) SubscribeDocument(ctx context.Context, path string) (<-chan DocumentSnapshot, error) {
	collection, _, err := repository.SplitPath(path)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid document path", map[string]any{"path": path})
	}
	dirty, unsubscribe, err := s.watch(ctx, collection, path)
	if err != nil {
		return nil, err
	}

	out := make(chan DocumentSnapshot)
	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
			}

			snapshot := s.readDocument(ctx, path)
			if snapshot.Err != nil && ctx.Err() != nil {
				return
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// watch subscribes to change events on collection and returns a signal
// channel that already holds the initial signal. When path is set only
// changes to that document count.
func (s *Store) watch(ctx context.Context, collection, path string) (<-chan struct{}, func(), error) {
	dirty := make(chan struct{}, 1)
	dirty <- struct{}{}

	unsubscribe, err := s.dispatcher.Subscribe(ctx, collection, func(_ context.Context, event events.Event) error {
		if event.Type != events.EventDocumentChanged {
			return nil
		}
		if path != "" && event.Path != "" && event.Path != path {
			return nil
		}
		select {
		case dirty <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		target := collection
		if path != "" {
			target = path
		}
		return nil, nil, apperrors.NewStoreSubscriptionError(target, err)
	}
	return dirty, unsubscribe, nil
}

func (s *Store) readCollection(ctx context.Context, collection string) CollectionSnapshot {
	ctx, cancel := withTimeout(ctx, s.readTimeout)
	defer cancel()

	docs, err := s.repo.List(ctx, collection)
	if err != nil {
		s.logger.Warn("collection read failed", zap.String("path", collection), zap.Error(err))
		return CollectionSnapshot{Err: apperrors.NewStoreSubscriptionError(collection, err)}
	}
	s.metrics.RecordDelivery(collection)
	return CollectionSnapshot{Documents: docs}
}

func (s *Store) readDocument(ctx context.Context, path string) DocumentSnapshot {
	ctx, cancel := withTimeout(ctx, s.readTimeout)
	defer cancel()

	doc, err := s.repo.Get(ctx, path)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordDelivery(path)
		return DocumentSnapshot{Exists: false}
	}
	if err != nil {
		s.logger.Warn("document read failed", zap.String("path", path), zap.Error(err))
		return DocumentSnapshot{Err: apperrors.NewStoreSubscriptionError(path, err)}
	}
	s.metrics.RecordDelivery(path)
	return DocumentSnapshot{Document: *doc, Exists: true}
}
