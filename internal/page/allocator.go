package page

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/stmregion/internal/mmap"
)

// ErrInvalidSize is returned when a page size leaves no usable payload.
var ErrInvalidSize = fmt.Errorf("page: size must be at least %d bytes", MinSize)

// ErrForeignPage is returned when a page freed through an allocator does not
// match its geometry.
var ErrForeignPage = errors.New("page: page size does not match allocator")

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(amount int64) error
	ReleaseMemory(amount int64)
}

// Allocator obtains pages from the OS and returns them.
type Allocator interface {
	// Alloc returns a fresh page with a zeroed header.
	Alloc() (*Page, error)
	// Free returns p to the OS. p must not be used afterwards.
	Free(p *Page) error
	// PageSize returns the size of every page produced by the allocator.
	PageSize() int
	// Stats returns allocation counters.
	Stats() Stats
}

// Stats tracks allocator activity.
type Stats struct {
	Allocated uint64 // Historical: pages obtained from the OS
	Freed     uint64 // Historical: pages returned to the OS
	Live      uint64 // Current: pages obtained and not yet freed
	Bytes     uint64 // Current: bytes held from the OS
}

type atomicStats struct {
	allocated atomic.Uint64
	freed     atomic.Uint64
}

func (s *atomicStats) snapshot(size int) Stats {
	allocated := s.allocated.Load()
	freed := s.freed.Load()
	live := allocated - freed
	return Stats{
		Allocated: allocated,
		Freed:     freed,
		Live:      live,
		Bytes:     live * uint64(size), //nolint:gosec // size validated positive
	}
}

// Option is a configuration option for allocators.
type Option func(*base)

// WithMemoryAcquirer charges every page against acquirer.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(b *base) {
		b.acquirer = acquirer
	}
}

type base struct {
	size     int
	acquirer MemoryAcquirer
	stats    atomicStats
}

func (b *base) init(size int, opts []Option) error {
	if size <= 0 {
		size = DefaultSize
	}
	if size < MinSize {
		return ErrInvalidSize
	}
	b.size = size
	for _, opt := range opts {
		opt(b)
	}
	return nil
}

func (b *base) acquire() error {
	if b.acquirer == nil {
		return nil
	}
	return b.acquirer.AcquireMemory(int64(b.size))
}

func (b *base) release() {
	if b.acquirer != nil {
		b.acquirer.ReleaseMemory(int64(b.size))
	}
}

// MmapAllocator maps every page as its own anonymous mapping, so Free
// returns the page to the OS immediately.
type MmapAllocator struct {
	base
}

// NewMmapAllocator creates an allocator of size-byte pages.
// If size <= 0, DefaultSize is used.
func NewMmapAllocator(size int, opts ...Option) (*MmapAllocator, error) {
	a := &MmapAllocator{}
	if err := a.init(size, opts); err != nil {
		return nil, err
	}
	return a, nil
}

// Alloc implements Allocator.
func (a *MmapAllocator) Alloc() (*Page, error) {
	if err := a.acquire(); err != nil {
		return nil, err
	}
	m, err := mmap.MapAnon(a.size)
	if err != nil {
		a.release()
		return nil, fmt.Errorf("failed to map anonymous memory for page: %w", err)
	}
	a.stats.allocated.Add(1)

	return newPage(m.Bytes(), func() error {
		err := m.Close()
		a.stats.freed.Add(1)
		a.release()
		return err
	}), nil
}

// Free implements Allocator.
func (a *MmapAllocator) Free(p *Page) error {
	if p.Size() != a.size && !p.Freed() {
		return ErrForeignPage
	}
	return p.free()
}

// PageSize implements Allocator.
func (a *MmapAllocator) PageSize() int { return a.size }

// Stats implements Allocator.
func (a *MmapAllocator) Stats() Stats { return a.stats.snapshot(a.size) }

// HeapAllocator backs pages with Go heap memory. Freed pages are dropped
// for the garbage collector. It is the portable fallback where anonymous
// mappings are unavailable, and the cheaper choice in tests.
type HeapAllocator struct {
	base
}

// NewHeapAllocator creates a heap allocator of size-byte pages.
// If size <= 0, DefaultSize is used.
func NewHeapAllocator(size int, opts ...Option) (*HeapAllocator, error) {
	a := &HeapAllocator{}
	if err := a.init(size, opts); err != nil {
		return nil, err
	}
	return a, nil
}

// Alloc implements Allocator.
func (a *HeapAllocator) Alloc() (*Page, error) {
	if err := a.acquire(); err != nil {
		return nil, err
	}
	a.stats.allocated.Add(1)
	return newPage(make([]byte, a.size), func() error {
		a.stats.freed.Add(1)
		a.release()
		return nil
	}), nil
}

// Free implements Allocator.
func (a *HeapAllocator) Free(p *Page) error {
	if p.Size() != a.size && !p.Freed() {
		return ErrForeignPage
	}
	return p.free()
}

// PageSize implements Allocator.
func (a *HeapAllocator) PageSize() int { return a.size }

// Stats implements Allocator.
func (a *HeapAllocator) Stats() Stats { return a.stats.snapshot(a.size) }
