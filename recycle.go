package stmregion

import (
	"github.com/hupe1980/stmregion/internal/audit"
	"github.com/hupe1980/stmregion/internal/page"
)

// recycle reclaims the pages of a region whose descriptor count reached
// zero. A region last used in the current epoch keeps its first page; any
// other region releases every page. Released pages go to the pool while it
// has room and to the OS otherwise.
func (r *Root) recycle(reg *Region) {
	const op = "recycle"

	if r.opts.debugChecks {
		if dc := reg.dc.Load(); dc != 0 {
			r.fatal(invariantf(op, reg.id, nil, "descriptor count is %d", dc))
		}
		if err := reg.Check(); err != nil {
			r.fatal(invariantf(op, reg.id, err, "precondition"))
		}
	} else if (reg.first == nil) != (reg.last == nil) {
		r.fatal(invariantf(op, reg.id, nil, "exactly one chain endpoint is set"))
	}

	var (
		kind   RecycleKind
		legacy *page.Page
		tail   *page.Page
		m      int
	)
	if reg.age == r.now {
		kind = RecycleActive
		if keep := reg.first; keep != nil {
			legacy, tail, m = keep.Next(), reg.last, reg.pages-1
			keep.Zero()
			if r.opts.debugChecks {
				keep.Scrub()
			}
			reg.last = keep
			reg.pages = 1
			reg.next = 0
			reg.limit = len(keep.Payload())
		}
	} else {
		kind = RecycleZombie
		legacy, tail, m = reg.first, reg.last, reg.pages
		reg.first, reg.last = nil, nil
		reg.pages, reg.next, reg.limit = 0, 0, 0
		if reg.age != 0 {
			reg.state = StateDrained
		}
	}

	if (legacy == nil) != (m == 0) {
		r.fatal(invariantf(op, reg.id, nil, "legacy chain set=%v with %d pages recorded", legacy != nil, m))
	}

	legacyPages := m
	pooled, spilled := r.dispose(reg, legacy, tail, m)

	if kind == RecycleActive {
		r.stats.activeRecycles++
	} else {
		r.stats.zombieRecycles++
	}
	r.metrics.RecordRecycle(kind, legacyPages)

	if r.opts.debugChecks {
		want := 0
		if kind == RecycleActive && reg.first != nil {
			want = 1
		}
		if reg.pages != want {
			r.fatal(invariantf(op, reg.id, nil, "%s recycle left %d pages, want %d", kind, reg.pages, want))
		}
		if err := reg.Check(); err != nil {
			r.fatal(invariantf(op, reg.id, err, "postcondition"))
		}
		if n, l := r.pool.Len(), r.pool.Limit(); n > l {
			r.fatal(invariantf(op, reg.id, nil, "pool holds %d pages, limit %d", n, l))
		}
	}
	if r.opts.trace {
		r.log.LogRecycle(reg.id, kind, legacyPages, pooled, spilled)
	}

	// Publishes the rewritten region to readers of Generation.
	reg.gen.Add(1)
}

// dispose releases a legacy chain of m pages. Pages are freed from the head
// while the pool cannot take the rest; the remainder is spliced onto the
// pool in one step.
func (r *Root) dispose(reg *Region, head, tail *page.Page, m int) (pooled, spilled int) {
	const op = "recycle"

	if head == nil {
		return 0, 0
	}

	var needed int64
	if r.opts.meterMemory {
		for p := head; p != nil; p = p.Next() {
			needed += int64(p.Used())
		}
	}

	limit := r.pool.Limit()
	n := r.pool.Len()
	for head != nil && n+m > limit {
		next := head.Next()
		r.track(op, head, audit.OwnerRegion, audit.OwnerFreed)
		if err := r.allocator.Free(head); err != nil {
			r.fatal(invariantf(op, reg.id, err, "returning page to the OS"))
		}
		head = next
		m--
		spilled++
	}
	r.stats.spilled += uint64(spilled)
	r.stats.freed += uint64(spilled)

	switch {
	case head == nil && m != 0:
		r.fatal(invariantf(op, reg.id, nil, "chain ended with %d pages unaccounted", m))
	case head != nil && m <= 0:
		r.fatal(invariantf(op, reg.id, nil, "chain longer than recorded"))
	}

	if head != nil {
		if r.opts.debugChecks {
			for p := head; p != nil; p = p.Next() {
				r.track(op, p, audit.OwnerRegion, audit.OwnerPool)
				p.Scrub()
			}
		}
		if err := r.pool.PushChain(head, tail, m); err != nil {
			r.fatal(invariantf(op, reg.id, err, "splicing %d pages onto the pool", m))
		}
		pooled = m
		r.stats.pooled += uint64(pooled)
	}

	if pooled > 0 {
		r.metrics.RecordPooled(pooled)
	}
	if spilled > 0 {
		r.metrics.RecordSpilled(spilled)
		if r.opts.trace {
			r.log.LogSpill(reg.id, spilled, r.pool.Len(), limit)
		}
	}

	size := int64(r.allocator.PageSize())
	if r.opts.meterMemory {
		r.metrics.RecordMemory(int64(pooled)*size, needed, int64(spilled)*size)
	}
	if r.opts.meterOverhead && pooled > 0 {
		r.metrics.RecordOverhead(int64(pooled) * page.HeaderSize)
	}
	return pooled, spilled
}
