package stmregion

import (
	"sync/atomic"
)

// MetricsCollector defines an interface for collecting reclamation metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Memory and overhead hooks only fire when WithMemoryMetering or
// WithOverheadMetering is enabled, because they walk page chains.
type MetricsCollector interface {
	// RecordDrain is called for every expired descriptor drained.
	// recycled reports whether the drain triggered a recycle.
	RecordDrain(recycled bool)

	// RecordRecycle is called after each recycle with the number of legacy
	// pages released by the region.
	RecordRecycle(kind RecycleKind, legacyPages int)

	// RecordPageAlloc is called when the allocation path obtains a page.
	RecordPageAlloc(fromPool bool)

	// RecordPooled is called when pages are spliced onto the pool.
	RecordPooled(pages int)

	// RecordSpilled is called when pages are returned to the OS.
	RecordSpilled(pages int)

	// RecordMemory reports bytes moved by a recycle: whole pages pooled,
	// payload bytes no longer needed, and whole pages freed.
	RecordMemory(pooledBytes, neededBytes, freedBytes int64)

	// RecordOverhead reports per-page header bytes of pooled pages.
	RecordOverhead(bytes int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordDrain(bool)                 {}
func (NoopMetricsCollector) RecordRecycle(RecycleKind, int)   {}
func (NoopMetricsCollector) RecordPageAlloc(bool)             {}
func (NoopMetricsCollector) RecordPooled(int)                 {}
func (NoopMetricsCollector) RecordSpilled(int)                {}
func (NoopMetricsCollector) RecordMemory(int64, int64, int64) {}
func (NoopMetricsCollector) RecordOverhead(int64)             {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
// It is safe to share between roots.
type BasicMetricsCollector struct {
	Drains          atomic.Int64
	DrainRecycles   atomic.Int64
	ActiveRecycles  atomic.Int64
	ZombieRecycles  atomic.Int64
	LegacyPages     atomic.Int64
	PoolAllocs      atomic.Int64
	OSAllocs        atomic.Int64
	PooledPages     atomic.Int64
	SpilledPages    atomic.Int64
	PooledBytes     atomic.Int64
	NeededBytes     atomic.Int64
	FreedBytes      atomic.Int64
	OverheadBytes   atomic.Int64
}

// RecordDrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDrain(recycled bool) {
	b.Drains.Add(1)
	if recycled {
		b.DrainRecycles.Add(1)
	}
}

// RecordRecycle implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecycle(kind RecycleKind, legacyPages int) {
	if kind == RecycleActive {
		b.ActiveRecycles.Add(1)
	} else {
		b.ZombieRecycles.Add(1)
	}
	b.LegacyPages.Add(int64(legacyPages))
}

// RecordPageAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPageAlloc(fromPool bool) {
	if fromPool {
		b.PoolAllocs.Add(1)
	} else {
		b.OSAllocs.Add(1)
	}
}

// RecordPooled implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPooled(pages int) {
	b.PooledPages.Add(int64(pages))
}

// RecordSpilled implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSpilled(pages int) {
	b.SpilledPages.Add(int64(pages))
}

// RecordMemory implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMemory(pooledBytes, neededBytes, freedBytes int64) {
	b.PooledBytes.Add(pooledBytes)
	b.NeededBytes.Add(neededBytes)
	b.FreedBytes.Add(freedBytes)
}

// RecordOverhead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOverhead(bytes int64) {
	b.OverheadBytes.Add(bytes)
}

// MetricsStats is a snapshot of BasicMetricsCollector.
type MetricsStats struct {
	Drains         int64
	DrainRecycles  int64
	ActiveRecycles int64
	ZombieRecycles int64
	LegacyPages    int64
	PoolAllocs     int64
	OSAllocs       int64
	PooledPages    int64
	SpilledPages   int64
	PooledBytes    int64
	NeededBytes    int64
	FreedBytes     int64
	OverheadBytes  int64
	PoolHitRatio   float64 // PoolAllocs / (PoolAllocs + OSAllocs)
}

// GetStats returns a snapshot of the collected metrics.
func (b *BasicMetricsCollector) GetStats() MetricsStats {
	s := MetricsStats{
		Drains:         b.Drains.Load(),
		DrainRecycles:  b.DrainRecycles.Load(),
		ActiveRecycles: b.ActiveRecycles.Load(),
		ZombieRecycles: b.ZombieRecycles.Load(),
		LegacyPages:    b.LegacyPages.Load(),
		PoolAllocs:     b.PoolAllocs.Load(),
		OSAllocs:       b.OSAllocs.Load(),
		PooledPages:    b.PooledPages.Load(),
		SpilledPages:   b.SpilledPages.Load(),
		PooledBytes:    b.PooledBytes.Load(),
		NeededBytes:    b.NeededBytes.Load(),
		FreedBytes:     b.FreedBytes.Load(),
		OverheadBytes:  b.OverheadBytes.Load(),
	}
	if total := s.PoolAllocs + s.OSAllocs; total > 0 {
		s.PoolHitRatio = float64(s.PoolAllocs) / float64(total)
	}
	return s
}
