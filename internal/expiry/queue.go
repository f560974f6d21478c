// Package expiry implements the bounded queue of expired region descriptors.
//
// The queue is a thin typed layer over a lock-free ring (yireyun/go-queue).
// The ring keeps a couple of slots in reserve and rounds its size up to a
// power of two, so it is sized with headroom for the requested capacity.
// Push fails instead of growing when the ring is full; the owner drains and
// retries.
package expiry

import (
	esqueue "github.com/yireyun/go-queue"
)

// DefaultCapacity is the default number of queued descriptors.
const DefaultCapacity = 1024

// Queue is a bounded FIFO of T.
type Queue[T any] struct {
	ring *esqueue.EsQueue
}

// New creates a queue holding at least capacity entries.
// If capacity == 0, DefaultCapacity is used.
func New[T any](capacity uint32) *Queue[T] {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	return &Queue[T]{ring: esqueue.NewQueue(2*capacity + 2)}
}

// Push appends v. It reports false if the queue is full.
func (q *Queue[T]) Push(v T) bool {
	ok, _ := q.ring.Put(v)
	return ok
}

// Pop removes the oldest entry. ok is false if the queue is empty.
func (q *Queue[T]) Pop() (v T, ok bool) {
	val, ok, _ := q.ring.Get()
	if !ok {
		return v, false
	}
	if val == nil {
		return v, true
	}
	return val.(T), true
}

// Len returns the number of queued entries.
func (q *Queue[T]) Len() int {
	return int(q.ring.Quantity())
}
