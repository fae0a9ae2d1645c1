package pathwire

import "sync/atomic"

// Queue is a fixed-capacity circular FIFO over caller supplied storage.
// A storage of length N holds at most N-1 items.
//
// One producer and one consumer may use a Queue from different
// goroutines; more of either is undefined.
type Queue[T any] struct {
	buf   []T
	write atomic.Uint32
	read  atomic.Uint32
}

// NewQueue creates a Queue backed by storage. The queue never allocates
// and never resizes.
func NewQueue[T any](storage []T) *Queue[T] {
	return &Queue[T]{buf: storage}
}

// Push appends an item. It returns false if the queue is full and the item
// is dropped.
func (q *Queue[T]) Push(item T) bool {
	size := uint32(len(q.buf))
	if size == 0 {
		return false
	}
	w := q.write.Load()
	next := (w + 1) % size
	if next == q.read.Load() {
		return false
	}
	q.buf[w] = item
	q.write.Store(next)
	return true
}

// Pop removes the oldest item. ok is false if the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	r := q.read.Load()
	if r == q.write.Load() {
		return item, false
	}
	item = q.buf[r]
	var zero T
	q.buf[r] = zero
	q.read.Store((r + 1) % uint32(len(q.buf)))
	return item, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	size := uint32(len(q.buf))
	if size == 0 {
		return 0
	}
	return int((q.write.Load() + size - q.read.Load()) % size)
}

// Cap returns the maximum number of items the queue can hold.
func (q *Queue[T]) Cap() int {
	if len(q.buf) == 0 {
		return 0
	}
	return len(q.buf) - 1
}
