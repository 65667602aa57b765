package synced

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sync/internal/observability"
	"github.com/spec-kit/helpdesk-sync/internal/repository"
	"github.com/spec-kit/helpdesk-sync/internal/store"
)

// CollectionSource streams collection snapshots.
type CollectionSource interface {
	SubscribeCollection(ctx context.Context, path string) (<-chan store.CollectionSnapshot, error)
}

// Collection keeps a consumer's view of remote collections current. One
// Collection value is one consumer.
type Collection[T any] struct {
	source CollectionSource
	decode Decoder[T]
	logger *zap.Logger
	subs   registry
}

// NewCollection builds a Collection. A nil decoder means JSONDecoder.
func NewCollection[T any](source CollectionSource, decode Decoder[T], logger *zap.Logger) *Collection[T] {
	if decode == nil {
		decode = JSONDecoder[T]()
	}
	return &Collection[T]{source: source, decode: decode, logger: observability.OrNop(logger)}
}

// Subscribe delivers the full decoded snapshot of path to onChange now and
// after every remote change. Faults go to onError and leave the previous
// snapshot in place. Callbacks run on one goroutine, in order.
func (c *Collection[T]) Subscribe(ctx context.Context, path string, onChange func([]T), onError func(error)) (Unsubscribe, error) {
	if onChange == nil {
		return nil, errors.New("onChange callback is required")
	}
	token, err := c.subs.acquire(path)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, release: func() { c.subs.release(path, token) }}

	snapshots, err := c.source.SubscribeCollection(subCtx, path)
	if err != nil {
		sub.stop()
		return nil, err
	}

	go func() {
		defer sub.stop()
		for snap := range snapshots {
			if !sub.active() {
				continue
			}
			if snap.Err != nil {
				if onError != nil {
					onError(snap.Err)
				}
				continue
			}
			onChange(c.decodeAll(snap.Documents))
		}
	}()

	return sub.stop, nil
}

func (c *Collection[T]) decodeAll(docs []repository.Document) []T {
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := c.decode(doc)
		if err != nil {
			c.logger.Warn("dropping malformed record", zap.String("path", doc.Path), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items
}
