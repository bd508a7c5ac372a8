package queue

import (
	"context"
	"sync"
)

// Unbounded is a FIFO queue whose Push never blocks.
// Any number of producers may push; a single consumer should call Pop.
type Unbounded[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{}
	closed bool
}

func New[T any]() *Unbounded[T] {
	return &Unbounded[T]{
		notify: make(chan struct{}, 1),
	}
}

// Push appends items to the queue. Pushing to a closed queue drops the items.
func (q *Unbounded[T]) Push(items ...T) {
	if len(items) == 0 {
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, items...)
	q.mu.Unlock()

	q.wake()
}

func (q *Unbounded[T]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop blocks until at least one item is queued and returns every queued item.
// It returns false once the queue is closed and drained, or the context ends.
func (q *Unbounded[T]) Pop(ctx context.Context) ([]T, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			items := q.items
			q.items = nil
			q.mu.Unlock()
			return items, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.notify:
		}
	}
}

func (q *Unbounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting items. Items already queued can still be popped.
func (q *Unbounded[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}
