package queue

import (
	"errors"
	"sync"
)

var ErrQueueClosed = errors.New("queue is closed")

// Queue is an unbounded FIFO queue that is safe for many producers and many
// consumers. Each item is handed to exactly one consumer.
type Queue[T any] struct {
	mu    *sync.Mutex
	cond  *sync.Cond
	items []T

	// index of the next item to hand out
	head int

	closed bool
}

func New[T any]() *Queue[T] {
	mu := &sync.Mutex{}
	return &Queue[T]{
		mu:   mu,
		cond: sync.NewCond(mu),
	}
}

// Enqueue puts an item at the tail of the queue. It never blocks on capacity.
func (q *Queue[T]) Enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items = append(q.items, item)
	q.cond.Signal()

	return nil
}

// Dequeue removes the item at the head of the queue, blocking while the queue
// is empty. Once the queue is closed the remaining items are still handed out;
// ErrQueueClosed is returned only when nothing is left.
func (q *Queue[T]) Dequeue() (item T, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.items) && !q.closed {
		q.cond.Wait()
	}

	if q.head == len(q.items) {
		return item, ErrQueueClosed
	}

	item = q.items[q.head]

	// drop the reference so the item can be collected once consumed
	var zero T
	q.items[q.head] = zero
	q.head++

	q.compact()

	return item, nil
}

// compact reclaims the consumed prefix of the backing slice. Must be called
// with the lock held.
func (q *Queue[T]) compact() {
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return
	}

	if q.head >= 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
}

// Close stops the queue from accepting new items and wakes every blocked
// consumer. Calling Close more than once is a no-op.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of items waiting to be consumed.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items) - q.head
}

func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}
