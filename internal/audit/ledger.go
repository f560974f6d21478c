// Package audit tracks page ownership for debug checks.
//
// Every page ID is recorded in exactly one owner set: a region chain, a
// page pool, or freed to the OS. Moves assert the page is currently held by
// the expected owner, so double pooling, use after free, and leaked pages
// surface at the transition that caused them rather than much later.
//
// Sets are roaring bitmaps; page IDs are dense small integers, which keeps
// the ledger compact for long runs. The Ledger is safe for concurrent use
// so it can be shared by roots that exchange regions.
package audit

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Owner identifies who holds a page.
type Owner uint8

const (
	// OwnerRegion means the page is linked into a region chain.
	OwnerRegion Owner = iota
	// OwnerPool means the page sits on a page pool.
	OwnerPool
	// OwnerFreed means the page was returned to the OS.
	OwnerFreed

	numOwners
)

func (o Owner) String() string {
	switch o {
	case OwnerRegion:
		return "region"
	case OwnerPool:
		return "pool"
	case OwnerFreed:
		return "freed"
	default:
		return fmt.Sprintf("owner(%d)", uint8(o))
	}
}

// Counts is a snapshot of the owner set sizes.
type Counts struct {
	Region uint64
	Pool   uint64
	Freed  uint64
}

// Total returns the number of pages ever recorded.
func (c Counts) Total() uint64 { return c.Region + c.Pool + c.Freed }

// ViolationError reports a page found with an unexpected owner.
type ViolationError struct {
	Page uint32
	Want Owner
	Got  Owner
	Op   string
}

func (e *ViolationError) Error() string {
	if e.Want == numOwners {
		return fmt.Sprintf("audit: %s page %d: already held by %s", e.Op, e.Page, e.Got)
	}
	if e.Got == numOwners {
		return fmt.Sprintf("audit: %s page %d: expected owner %s, page unknown", e.Op, e.Page, e.Want)
	}
	return fmt.Sprintf("audit: %s page %d: expected owner %s, held by %s", e.Op, e.Page, e.Want, e.Got)
}

// Ledger records page ownership.
type Ledger struct {
	mu   sync.Mutex
	sets [numOwners]*roaring.Bitmap
}

// New creates an empty ledger.
func New() *Ledger {
	l := &Ledger{}
	for i := range l.sets {
		l.sets[i] = roaring.New()
	}
	return l
}

// Adopt records a page freshly obtained from the OS as owned by a region.
func (l *Ledger) Adopt(id uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if got := l.ownerLocked(id); got != numOwners {
		return &ViolationError{Page: id, Want: numOwners, Got: got, Op: "adopt"}
	}
	l.sets[OwnerRegion].Add(id)
	return nil
}

// Move transfers id from one owner to another.
func (l *Ledger) Move(id uint32, from, to Owner) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.sets[from].CheckedRemove(id) {
		return &ViolationError{Page: id, Want: from, Got: l.ownerLocked(id), Op: "move to " + to.String()}
	}
	l.sets[to].Add(id)
	return nil
}

// Owner returns who holds id, and false if the page is unknown.
func (l *Ledger) Owner(id uint32) (Owner, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o := l.ownerLocked(id)
	return o, o != numOwners
}

// Counts returns the size of every owner set.
func (l *Ledger) Counts() Counts {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Counts{
		Region: l.sets[OwnerRegion].GetCardinality(),
		Pool:   l.sets[OwnerPool].GetCardinality(),
		Freed:  l.sets[OwnerFreed].GetCardinality(),
	}
}

// Holds reports whether every id in ids is held by o.
func (l *Ledger) Holds(o Owner, ids ...uint32) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range ids {
		if !l.sets[o].Contains(id) {
			return false
		}
	}
	return true
}

func (l *Ledger) ownerLocked(id uint32) Owner {
	for o, set := range l.sets {
		if set.Contains(id) {
			return Owner(o) //nolint:gosec // o < numOwners
		}
	}
	return numOwners
}
