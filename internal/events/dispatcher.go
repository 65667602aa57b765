package events

import (
	"context"
	"errors"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription by topic.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe registers handler for events published on topic. The
	// returned function removes the handler and is safe to call twice.
	Subscribe(ctx context.Context, topic string, handler EventHandler) (func(), error)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[string]map[uint64]EventHandler),
	}
}

// Publish synchronously invokes handlers for the event topic. Every handler
// runs even when an earlier one fails.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := make([]EventHandler, 0, len(d.listeners[event.Topic]))
	for _, h := range d.listeners[event.Topic] {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given topic.
func (d *inMemoryDispatcher) Subscribe(_ context.Context, topic string, handler EventHandler) (func(), error) {
	if handler == nil {
		return nil, errors.New("nil event handler")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	if d.listeners[topic] == nil {
		d.listeners[topic] = make(map[uint64]EventHandler)
	}
	d.listeners[topic][id] = handler

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners[topic], id)
		if len(d.listeners[topic]) == 0 {
			delete(d.listeners, topic)
		}
	}, nil
}
