package action

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Pop once the queue is closed and drained
var ErrQueueClosed = errors.New("action queue closed")

// Queue is an unbounded FIFO of actions. Producers on any goroutine Push
// without blocking; the event loop is the only consumer.
type Queue struct {
	mu     sync.Mutex
	items  []Action
	notify chan struct{}
	done   chan struct{}
	closed bool
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push appends an action. It never blocks, so it is safe to call while
// holding other locks. Actions pushed after Close are dropped.
func (q *Queue) Push(a Action) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, a)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// TryPop removes the oldest action if there is one
func (q *Queue) TryPop() (Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	a := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return a, true
}

// Pop blocks until an action is available, the context ends or the queue is closed
func (q *Queue) Pop(ctx context.Context) (Action, error) {
	for {
		if a, ok := q.TryPop(); ok {
			return a, nil
		}

		select {
		case <-q.notify:
		case <-q.done:
			if a, ok := q.TryPop(); ok {
				return a, nil
			}
			return nil, ErrQueueClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of queued actions
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting actions and wakes blocked consumers
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}
