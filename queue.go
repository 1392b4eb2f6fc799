package gnbasync

import (
	"sync"

	"github.com/joeycumines/gnbasync/internal/intrusive"
)

// AsyncQueue is a bounded FIFO of T plus an intrusive FIFO list of pending
// reader awaiters. TryPush attempts a bounded push; on success, if a reader
// is already waiting, it is popped from the head of the reader list and
// resumed directly with the value (bypassing the FIFO buffer entirely, so
// the buffer's element count and "elements delivered to a waiting reader"
// are always exactly complementary).
//
// A single concurrent consumer is assumed; TryPush may be called from any
// number of producer goroutines.
type AsyncQueue[T any] struct {
	mu       sync.Mutex
	capacity int
	buf      []T
	readers  intrusive.List[T]
}

// NewAsyncQueue creates a queue with the given bounded capacity. capacity
// must be > 0.
func NewAsyncQueue[T any](capacity int) *AsyncQueue[T] {
	if capacity <= 0 {
		panic("gnbasync: AsyncQueue capacity must be > 0")
	}
	return &AsyncQueue[T]{capacity: capacity}
}

// TryPush attempts to enqueue v without blocking. Returns false if the
// queue is at capacity and no reader is waiting to take v immediately;
// internal state is unchanged on failure.
func (q *AsyncQueue[T]) TryPush(v T) bool {
	q.mu.Lock()
	if n := q.readers.PopFront(); n != nil {
		q.mu.Unlock()
		n.Resume(v)
		return true
	}
	if len(q.buf) >= q.capacity {
		q.mu.Unlock()
		return false
	}
	q.buf = append(q.buf, v)
	q.mu.Unlock()
	return true
}

// Len returns the number of elements currently buffered (not counting
// values already handed directly to a waiting reader).
func (q *AsyncQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Awaiter returns a fresh, single-use reader Awaiter. Awaiting it pops one
// element: immediately if the buffer is non-empty, otherwise once a
// producer's TryPush hands one to this reader directly.
func (q *AsyncQueue[T]) Awaiter() Awaiter[T] {
	return &queueAwaiter[T]{q: q}
}

type queueAwaiter[T any] struct {
	q    *AsyncQueue[T]
	node intrusive.Node[T]
}

func (a *queueAwaiter[T]) Ready() (T, bool) {
	a.q.mu.Lock()
	defer a.q.mu.Unlock()
	if len(a.q.buf) == 0 {
		var zero T
		return zero, false
	}
	v := a.q.buf[0]
	a.q.buf = a.q.buf[1:]
	return v, true
}

func (a *queueAwaiter[T]) Register(resume func(T)) func() {
	a.q.mu.Lock()
	if len(a.q.buf) > 0 {
		v := a.q.buf[0]
		a.q.buf = a.q.buf[1:]
		a.q.mu.Unlock()
		resume(v)
		return func() {}
	}
	a.node.Resume = resume
	a.q.readers.PushBack(&a.node)
	a.q.mu.Unlock()
	return func() {
		a.q.mu.Lock()
		a.q.readers.Remove(&a.node)
		a.q.mu.Unlock()
	}
}
