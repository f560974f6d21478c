package stmregion

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/stmregion/internal/audit"
	"github.com/hupe1980/stmregion/internal/page"
	"github.com/hupe1980/stmregion/internal/pagepool"
)

var rootIDs atomic.Uint64

// defaultLedger audits every debug-checked root that was not given its own
// ledger, so regions may move between such roots.
var defaultLedger = audit.New()

// Root is a descriptor root: the per-thread anchor holding the current
// epoch, the page pool, and the expired-descriptor queue.
//
// A Root is single-owner. Exactly one goroutine may use it at a time; give
// every mutator thread its own Root. Regions may be shared between roots;
// only their descriptor counters are touched concurrently.
type Root struct {
	id          uint64
	now         Epoch
	pool        *pagepool.Pool
	queue       ExpiredQueue
	allocator   page.Allocator
	payloadSize int
	ledger      *audit.Ledger // nil unless debug checks are enabled
	opts        options
	log         *Logger
	metrics     MetricsCollector
	closed      bool
	stats       rootStats
}

type rootStats struct {
	drained        uint64
	activeRecycles uint64
	zombieRecycles uint64
	pooled         uint64
	spilled        uint64
	freed          uint64
	poolHits       uint64
	osAllocs       uint64
}

// NewRoot creates a descriptor root at epoch 1 with an empty page pool.
func NewRoot(optFns ...Option) (*Root, error) {
	o := applyOptions(optFns)

	if o.poolLimit < 0 {
		return nil, fmt.Errorf("%w: pool limit %d is negative", ErrInvalidConfig, o.poolLimit)
	}

	alloc := o.allocator
	if alloc == nil {
		a, err := page.NewMmapAllocator(o.pageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		alloc = a
	}
	if alloc.PageSize() < page.MinSize {
		return nil, fmt.Errorf("%w: page size %d leaves no payload", ErrInvalidConfig, alloc.PageSize())
	}

	q := o.queue
	if q == nil {
		q = NewExpiredQueue(o.queueCapacity)
	}

	var ledger *audit.Ledger
	if o.debugChecks {
		if o.ledger != nil {
			ledger = o.ledger.l
		} else {
			ledger = defaultLedger
		}
	}

	id := rootIDs.Add(1)
	return &Root{
		id:          id,
		now:         1,
		pool:        pagepool.New(o.poolLimit),
		queue:       q,
		allocator:   alloc,
		payloadSize: alloc.PageSize() - page.HeaderSize,
		ledger:      ledger,
		opts:        o,
		log:         o.logger.WithRoot(id),
		metrics:     o.metrics,
	}, nil
}

// ID returns the root's process-unique identifier.
func (r *Root) ID() uint64 { return r.id }

// Now returns the current epoch.
func (r *Root) Now() Epoch { return r.now }

// Tick advances the epoch and returns the new value. Regions last used
// before a tick are zombies when their count next drops to zero.
func (r *Root) Tick() Epoch {
	r.now++
	return r.now
}

// PageSize returns the size of pages obtained by this root.
func (r *Root) PageSize() int { return r.allocator.PageSize() }

// PayloadSize returns the allocatable bytes per page.
func (r *Root) PayloadSize() int { return r.payloadSize }

// PooledPages returns the number of pages on the pool.
func (r *Root) PooledPages() int { return r.pool.Len() }

// PoolLimit returns the pool capacity.
func (r *Root) PoolLimit() int { return r.pool.Limit() }

// Expire hands one descriptor reference on reg to the drainer. The caller
// must hold that reference, normally taken with Retain when the region was
// registered. If the queue is full, Expire drains entries until it accepts.
func (r *Root) Expire(reg *Region) error {
	if reg == nil {
		return ErrNilRegion
	}
	for !r.queue.Push(reg) {
		if !r.DrainOne() {
			return ErrQueueFull
		}
	}
	return nil
}

// Close returns every pooled page to the OS and disables pooling.
// Allocation fails with ErrClosed afterwards. Draining keeps working so
// outstanding references can still be retired; their pages are freed
// instead of pooled.
func (r *Root) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	r.pool.Drain(func(p *page.Page) {
		r.track("close", p, audit.OwnerPool, audit.OwnerFreed)
		if err := r.allocator.Free(p); err != nil {
			errs = append(errs, err)
			return
		}
		r.stats.freed++
	})
	r.pool.SetLimit(0)
	return errors.Join(errs...)
}

func (r *Root) fatal(err *InvariantError) {
	if r.log != nil {
		r.log.LogFatal(err)
	}
	panic(err)
}

func (r *Root) adopt(op string, p *page.Page) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.Adopt(p.ID()); err != nil {
		r.fatal(invariantf(op, 0, err, "page ownership"))
	}
}

func (r *Root) track(op string, p *page.Page, from, to audit.Owner) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.Move(p.ID(), from, to); err != nil {
		r.fatal(invariantf(op, 0, err, "page ownership"))
	}
}
