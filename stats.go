package stmregion

import "fmt"

// Stats is a point-in-time view of a root.
type Stats struct {
	Root        uint64
	Epoch       Epoch
	PageSize    int
	PooledPages int
	PoolLimit   int
	QueueLen    int
	Closed      bool

	Drained        uint64 // expired descriptors drained
	ActiveRecycles uint64
	ZombieRecycles uint64
	PagesPooled    uint64 // legacy pages spliced onto the pool
	PagesSpilled   uint64 // legacy pages freed because the pool was saturated
	PagesFreed     uint64 // pages returned to the OS, spills and Close included
	PoolHits       uint64 // page requests served by the pool
	OSAllocs       uint64 // page requests served by the OS
}

// Recycles returns the total number of recycles.
func (s Stats) Recycles() uint64 { return s.ActiveRecycles + s.ZombieRecycles }

// PooledBytes returns the bytes held by the pool.
func (s Stats) PooledBytes() int { return s.PooledPages * s.PageSize }

func (s Stats) String() string {
	return fmt.Sprintf(
		"Root{epoch: %d, pool: %d/%d pages (%.1f KB), queue: %d, recycles: %d active / %d zombie, pooled: %d, spilled: %d, pool hits: %d, os allocs: %d}",
		s.Epoch,
		s.PooledPages, s.PoolLimit,
		float64(s.PooledBytes())/1024,
		s.QueueLen,
		s.ActiveRecycles, s.ZombieRecycles,
		s.PagesPooled, s.PagesSpilled,
		s.PoolHits, s.OSAllocs,
	)
}

// Stats returns a snapshot of the root's counters.
func (r *Root) Stats() Stats {
	return Stats{
		Root:           r.id,
		Epoch:          r.now,
		PageSize:       r.allocator.PageSize(),
		PooledPages:    r.pool.Len(),
		PoolLimit:      r.pool.Limit(),
		QueueLen:       r.queue.Len(),
		Closed:         r.closed,
		Drained:        r.stats.drained,
		ActiveRecycles: r.stats.activeRecycles,
		ZombieRecycles: r.stats.zombieRecycles,
		PagesPooled:    r.stats.pooled,
		PagesSpilled:   r.stats.spilled,
		PagesFreed:     r.stats.freed,
		PoolHits:       r.stats.poolHits,
		OSAllocs:       r.stats.osAllocs,
	}
}

func (r *Root) String() string { return r.Stats().String() }
