package stmregion

import (
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/stmregion/internal/page"
)

// Epoch is a root's monotonically advancing clock. Zero is never a valid
// current time, so a zero age marks a region that has never been used.
type Epoch uint64

// State is the lifecycle stage of a region descriptor.
type State uint8

const (
	// StateFresh means the region has never held pages.
	StateFresh State = iota
	// StateLive means the region holds at least one page.
	StateLive
	// StateDrained means the region was used once and released all pages
	// as a zombie. Its age is still recorded.
	StateDrained
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateLive:
		return "live"
	case StateDrained:
		return "drained"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// RecycleKind classifies a recycle by the region's age.
type RecycleKind uint8

const (
	// RecycleActive recycles a region last used in the current epoch.
	// The first page is kept so the descriptor can be reused at once.
	RecycleActive RecycleKind = iota
	// RecycleZombie recycles a region whose last use predates the current
	// epoch. Every page is released.
	RecycleZombie
)

func (k RecycleKind) String() string {
	if k == RecycleActive {
		return "active"
	}
	return "zombie"
}

var regionIDs atomic.Uint64

// Region is a region descriptor: the identity and liveness state of a
// logical group of allocations that is reclaimed as a whole.
//
// The descriptor counter is the only field that may be touched from several
// threads at once, and only through Retain and Release. Everything else is
// owned by whichever thread currently allocates in or recycles the region;
// the counter handshake orders those hand-overs.
type Region struct {
	dc  atomic.Int64
	gen atomic.Uint64
	id  uint64

	state State
	age   Epoch
	first *page.Page
	last  *page.Page
	pages int
	next  int // next free payload offset in last
	limit int // payload length of last
}

// NewRegion returns a fresh descriptor with no pages and no references.
func NewRegion() *Region {
	return &Region{id: regionIDs.Add(1)}
}

// ID returns the descriptor's process-unique identifier.
func (r *Region) ID() uint64 { return r.id }

// Retain adds a descriptor reference and returns the new count.
func (r *Region) Retain() int64 {
	return r.dc.Add(1)
}

// Release drops one descriptor reference and reports whether it was the
// last one.
//
// Release never recycles. A region released to zero here keeps its pages;
// hand references to Root.Expire instead to have a drainer recycle the
// region when its count reaches zero.
//
// Releasing a reference that was never taken panics with an
// *InvariantError.
func (r *Region) Release() bool {
	prior := r.release()
	if prior <= 0 {
		panic(invariantf("release", r.id, nil, "descriptor count underflow: %d before release", prior))
	}
	return prior == 1
}

// release decrements the counter and returns its prior value.
func (r *Region) release() int64 {
	return r.dc.Add(-1) + 1
}

// DC returns the current descriptor count.
func (r *Region) DC() int64 { return r.dc.Load() }

// Generation returns how many times the region has been recycled. A
// thread that observes a new generation also observes the recycled state,
// so it may reuse the descriptor.
func (r *Region) Generation() uint64 { return r.gen.Load() }

// State returns the lifecycle stage.
func (r *Region) State() State { return r.state }

// Age returns the epoch of the region's most recent allocation.
func (r *Region) Age() Epoch { return r.age }

// Pages returns the length of the page chain.
func (r *Region) Pages() int { return r.pages }

// Remaining returns the free payload bytes left in the last page.
func (r *Region) Remaining() int { return r.limit - r.next }

// Used returns the payload bytes consumed across the chain.
func (r *Region) Used() int {
	used := 0
	for p := r.first; p != nil; p = p.Next() {
		used += p.Used()
	}
	return used
}

func (r *Region) String() string {
	return fmt.Sprintf("Region{id: %d, state: %s, age: %d, pages: %d, dc: %d, gen: %d}",
		r.id, r.state, r.age, r.pages, r.dc.Load(), r.gen.Load())
}

// Check verifies the structural invariants of the descriptor and its chain:
// endpoint nullity agrees with the page count, the tail is reachable in
// exactly that many hops, every page header is intact, and the state tag
// agrees with (age, first page).
func (r *Region) Check() error {
	const op = "check"

	if dc := r.dc.Load(); dc < 0 {
		return invariantf(op, r.id, nil, "descriptor count %d is negative", dc)
	}
	if (r.first == nil) != (r.last == nil) {
		return invariantf(op, r.id, nil, "first page set=%v but last page set=%v", r.first != nil, r.last != nil)
	}
	if (r.first == nil) != (r.pages == 0) {
		return invariantf(op, r.id, nil, "%d pages recorded but first page set=%v", r.pages, r.first != nil)
	}

	switch {
	case r.first != nil && r.state != StateLive:
		return invariantf(op, r.id, nil, "holds pages in state %s", r.state)
	case r.first == nil && r.state == StateLive:
		return invariantf(op, r.id, nil, "live without pages")
	case r.state == StateFresh && r.age != 0:
		return invariantf(op, r.id, nil, "fresh with age %d", r.age)
	case r.state == StateDrained && r.age == 0:
		return invariantf(op, r.id, nil, "drained without an age")
	}

	if r.first == nil {
		return nil
	}

	if r.pages == 1 && (r.first != r.last || r.first.Next() != nil) {
		return invariantf(op, r.id, nil, "single page chain is not self-terminated")
	}

	n := 0
	var tail *page.Page
	for p := r.first; p != nil; p = p.Next() {
		if n == r.pages {
			return invariantf(op, r.id, nil, "chain longer than %d pages", r.pages)
		}
		if err := p.Validate(); err != nil {
			return invariantf(op, r.id, err, "page %d of %d", n, r.pages)
		}
		tail = p
		n++
	}
	if n != r.pages {
		return invariantf(op, r.id, nil, "chain has %d pages, %d recorded", n, r.pages)
	}
	if tail != r.last {
		return invariantf(op, r.id, nil, "last page %d is not the chain tail %d", r.last.ID(), tail.ID())
	}
	if r.next < 0 || r.next > r.limit || r.limit != len(r.last.Payload()) {
		return invariantf(op, r.id, nil, "cursor %d outside last page payload [0,%d] of %d bytes",
			r.next, r.limit, len(r.last.Payload()))
	}
	return nil
}
