package stmregion

import "github.com/hupe1980/stmregion/internal/expiry"

// ExpiredQueue holds region descriptors whose lexical window has closed.
// Each entry carries one descriptor reference that the drainer releases.
//
// A queue belongs to a single root and is not required to be safe for
// concurrent use.
type ExpiredQueue interface {
	// Push enqueues r and reports false if the queue is full.
	Push(r *Region) bool
	// Pop dequeues the oldest entry. ok is false if the queue is empty.
	Pop() (r *Region, ok bool)
	// Len returns the number of queued entries.
	Len() int
}

// NewExpiredQueue returns the default bounded lock-free queue holding at
// least capacity entries.
func NewExpiredQueue(capacity uint32) ExpiredQueue {
	return expiry.New[*Region](capacity)
}
