package stmregion

import (
	"fmt"

	"github.com/hupe1980/stmregion/internal/audit"
	"github.com/hupe1980/stmregion/internal/page"
)

// DefaultAlignment is the alignment of every allocation, in bytes.
const DefaultAlignment = 8

// Alloc bump-allocates n zeroed bytes in reg and stamps the region with the
// current epoch. When the last page is exhausted a page is taken from the
// pool, or from the OS if the pool is empty, and linked at the tail.
//
// The caller must hold a reference on reg. The returned slice is valid
// until the region is recycled.
func (r *Root) Alloc(reg *Region, n int) ([]byte, error) {
	if reg == nil {
		return nil, ErrNilRegion
	}
	if r.closed {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, nil
	}
	if n > r.payloadSize {
		return nil, fmt.Errorf("%w: %d bytes, payload is %d", ErrAllocTooLarge, n, r.payloadSize)
	}

	if reg.first == nil || reg.next+n > reg.limit {
		p, err := r.acquirePage()
		if err != nil {
			return nil, err
		}
		if reg.first == nil {
			reg.first = p
			reg.pages = 0
			reg.state = StateLive
		} else {
			reg.last.SetNext(p)
		}
		reg.last = p
		reg.pages++
		reg.next = 0
		reg.limit = len(p.Payload())
	}

	start := reg.next
	reg.next = min(start+alignUp(n), reg.limit)
	reg.last.AddUsed(reg.next - start)
	reg.age = r.now

	buf := reg.last.Payload()[start : start+n : start+n]
	clear(buf)
	return buf, nil
}

func (r *Root) acquirePage() (*page.Page, error) {
	if p := r.pool.Pop(); p != nil {
		p.Zero()
		r.track("alloc", p, audit.OwnerPool, audit.OwnerRegion)
		r.stats.poolHits++
		r.metrics.RecordPageAlloc(true)
		return p, nil
	}

	p, err := r.allocator.Alloc()
	if err != nil {
		return nil, fmt.Errorf("region page: %w", err)
	}
	r.adopt("alloc", p)
	r.stats.osAllocs++
	r.metrics.RecordPageAlloc(false)
	return p, nil
}

func alignUp(n int) int {
	const mask = DefaultAlignment - 1
	return (n + mask) &^ mask
}
