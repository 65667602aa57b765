package synced

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrAlreadySubscribed is returned when a consumer subscribes to a path it
// is already subscribed to.
var ErrAlreadySubscribed = errors.New("already subscribed to path")

// Unsubscribe stops a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// registry tracks the active paths of one consumer.
type registry struct {
	mu     sync.Mutex
	next   uint64
	active map[string]uint64
}

func (r *registry) acquire(path string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		r.active = make(map[string]uint64)
	}
	if _, ok := r.active[path]; ok {
		return 0, ErrAlreadySubscribed
	}
	r.next++
	r.active[path] = r.next
	return r.next, nil
}

func (r *registry) release(path string, token uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[path] == token {
		delete(r.active, path)
	}
}

// subscription holds the cancellation state shared by the delivery
// goroutine and the Unsubscribe func.
type subscription struct {
	stopped atomic.Bool
	cancel  context.CancelFunc
	once    sync.Once
	release func()
}

func (s *subscription) stop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		s.cancel()
		s.release()
	})
}

func (s *subscription) active() bool {
	return !s.stopped.Load()
}
