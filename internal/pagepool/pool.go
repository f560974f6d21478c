// Package pagepool implements the bounded per-thread freelist of recycled
// region pages.
//
// The pool is a LIFO stack threaded through the pages' own next links. It
// never grows past its limit; callers that would overflow it must return
// the surplus to the OS themselves. A Pool is single-owner and not safe for
// concurrent use.
package pagepool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/stmregion/internal/page"
)

var (
	// ErrOverflow is returned when a splice would exceed the pool limit.
	ErrOverflow = errors.New("pagepool: chain exceeds free capacity")
	// ErrBadChain is returned when a splice names an inconsistent chain.
	ErrBadChain = errors.New("pagepool: malformed chain")
)

// Pool is a bounded LIFO stack of free pages.
type Pool struct {
	head  *page.Page
	n     int
	limit int
}

// New creates an empty pool holding at most limit pages.
// A negative limit is treated as zero.
func New(limit int) *Pool {
	if limit < 0 {
		limit = 0
	}
	return &Pool{limit: limit}
}

// Len returns the number of pooled pages.
func (p *Pool) Len() int { return p.n }

// Limit returns the pool capacity.
func (p *Pool) Limit() int { return p.limit }

// Free returns the number of pages the pool can still accept.
func (p *Pool) Free() int { return p.limit - p.n }

// Head returns the most recently pooled page, or nil.
func (p *Pool) Head() *page.Page { return p.head }

// PushChain splices the run head..tail of n pages onto the pool in O(1).
// tail's next link is rewritten to the previous pool head.
func (p *Pool) PushChain(head, tail *page.Page, n int) error {
	if head == nil || tail == nil || n <= 0 {
		return fmt.Errorf("%w: head=%v tail=%v n=%d", ErrBadChain, head != nil, tail != nil, n)
	}
	if n > p.limit-p.n {
		return fmt.Errorf("%w: %d pages, %d free", ErrOverflow, n, p.limit-p.n)
	}
	tail.SetNext(p.head)
	p.head = head
	p.n += n
	return nil
}

// Pop removes and returns the most recently pooled page, or nil if the pool
// is empty. The returned page is unlinked from the pool.
func (p *Pool) Pop() *page.Page {
	pg := p.head
	if pg == nil {
		return nil
	}
	p.head = pg.Next()
	pg.SetNext(nil)
	p.n--
	return pg
}

// SetLimit changes the capacity. Pages above a lowered limit stay pooled
// until popped; the pool accepts nothing until it is back under the limit.
func (p *Pool) SetLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	p.limit = limit
}

// Drain empties the pool, handing each page to fn in LIFO order.
func (p *Pool) Drain(fn func(*page.Page)) {
	for pg := p.Pop(); pg != nil; pg = p.Pop() {
		fn(pg)
	}
}
