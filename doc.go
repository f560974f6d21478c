// Package stmregion reclaims region memory for a software transactional
// memory runtime.
//
// Allocations are grouped into regions. A region is a chain of fixed-size
// pages with a bump cursor in the last page, plus an atomic descriptor
// count (DC) of live references. When a transactional window closes, the
// runtime hands the region's reference to the expired-descriptor queue of
// its Root. Draining the queue decrements DC; the drainer that observes the
// transition to zero recycles the region.
//
// # Quick Start
//
//	root, _ := stmregion.NewRoot(stmregion.WithPoolLimit(16))
//	defer root.Close()
//
//	reg := stmregion.NewRegion()
//	reg.Retain()
//	buf, _ := root.Alloc(reg, 64)
//	_ = buf
//
//	root.Expire(reg) // hand the reference over
//	root.Drain()     // DC reaches zero, the region is recycled
//
// # Active and Zombie Regions
//
// Every Root carries an epoch, advanced with Tick. A region recycled in the
// epoch of its last allocation is active: it keeps its first page, rewound
// and ready for reuse, and releases the rest. A region whose last use
// predates the current epoch is a zombie: it releases all of its pages but
// keeps its identity and recorded age.
//
// # Page Pool
//
// Released pages are spliced onto the root's bounded LIFO pool in O(1) and
// reused by later allocations. When the pool cannot take a whole chain,
// pages are returned to the OS from the head of the chain until the rest
// fits.
//
// # Threads
//
// A Root is single-owner; give each goroutine its own. Regions may move
// between roots and several roots may drain references to the same region
// concurrently. The recycling root's epoch and pool are used.
//
// # Invariant Violations
//
// Broken chain, counter, or pool state is memory corruption. It is logged
// and the package panics with an *InvariantError, which matches
// ErrInvariant under errors.Is. WithDebugChecks adds full pre- and
// postcondition checks and an ownership ledger that tracks every page.
package stmregion
