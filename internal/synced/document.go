package synced

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sync/internal/observability"
	"github.com/spec-kit/helpdesk-sync/internal/store"
)

// DocumentSource streams single document snapshots and can lazily create
// a document.
type DocumentSource interface {
	SubscribeDocument(ctx context.Context, path string) (<-chan store.DocumentSnapshot, error)
	CreateIfAbsent(ctx context.Context, path string, data any) (bool, error)
}

// Document keeps a consumer's view of single remote documents current.
type Document[T any] struct {
	source DocumentSource
	decode Decoder[T]
	logger *zap.Logger
	subs   registry
}

// NewDocument builds a Document. A nil decoder means JSONDecoder.
func NewDocument[T any](source DocumentSource, decode Decoder[T], logger *zap.Logger) *Document[T] {
	if decode == nil {
		decode = JSONDecoder[T]()
	}
	return &Document[T]{source: source, decode: decode, logger: observability.OrNop(logger)}
}

// Subscribe delivers the document at path to onChange now and after every
// change. When the document does not exist it is created from
// defaultFactory without a callback; the change that follows delivers it.
// A nil defaultFactory leaves missing documents alone.
func (d *Document[T]) Subscribe(ctx context.Context, path string, defaultFactory func() T, onChange func(T), onError func(error)) (Unsubscribe, error) {
	if onChange == nil {
		return nil, errors.New("onChange callback is required")
	}
	token, err := d.subs.acquire(path)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, release: func() { d.subs.release(path, token) }}

	snapshots, err := d.source.SubscribeDocument(subCtx, path)
	if err != nil {
		sub.stop()
		return nil, err
	}

	report := func(err error) {
		if onError != nil {
			onError(err)
		}
	}

	go func() {
		defer sub.stop()
		for snap := range snapshots {
			if !sub.active() {
				continue
			}
			switch {
			case snap.Err != nil:
				report(snap.Err)
			case !snap.Exists:
				if defaultFactory == nil {
					continue
				}
				if _, err := d.source.CreateIfAbsent(subCtx, path, defaultFactory()); err != nil && sub.active() {
					report(err)
				}
			default:
				value, err := d.decode(snap.Document)
				if err != nil {
					d.logger.Warn("dropping malformed document", zap.String("path", path), zap.Error(err))
					continue
				}
				onChange(value)
			}
		}
	}()

	return sub.stop, nil
}
