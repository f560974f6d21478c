package page

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

const (
	// DefaultSize is the default page size (4 KiB).
	DefaultSize = 4096
	// HeaderSize is the size of the encoded page header.
	HeaderSize = 16
	// MinSize is the smallest page size that leaves a usable payload.
	MinSize = HeaderSize + 8

	magic uint32 = 0x50524353 // "SCRP"
)

// nextID hands out page IDs. IDs are unique across allocators so that a
// single ledger can track pages from several roots.
var nextID atomic.Uint32

// Page is a fixed-size backing slab and a singly-linked list node.
type Page struct {
	id   uint32
	next *Page
	used int
	data []byte

	// release returns data to its source; nil once freed.
	release func() error
}

func newPage(data []byte, release func() error) *Page {
	p := &Page{
		id:      nextID.Add(1),
		data:    data,
		release: release,
	}
	p.writeHeader()
	return p
}

// ID returns the page's process-unique identifier.
func (p *Page) ID() uint32 { return p.id }

// Next returns the successor in the chain, or nil.
func (p *Page) Next() *Page { return p.next }

// SetNext links n after p.
func (p *Page) SetNext(n *Page) { p.next = n }

// Used returns the payload bytes consumed, for accounting.
func (p *Page) Used() int { return p.used }

// AddUsed records n more consumed payload bytes.
func (p *Page) AddUsed(n int) {
	p.used += n
	binary.LittleEndian.PutUint32(p.data[8:12], uint32(p.used)) //nolint:gosec // used <= payload size
}

// Size returns the full page size including the header.
func (p *Page) Size() int { return len(p.data) }

// Payload returns the bump-allocation area of the page.
func (p *Page) Payload() []byte { return p.data[HeaderSize:] }

// Freed reports whether the page has been returned to the OS.
func (p *Page) Freed() bool { return p.data == nil }

// Zero clears the page metadata: the successor link and usage count.
// The payload is left as is.
func (p *Page) Zero() {
	p.next = nil
	p.used = 0
	p.writeHeader()
}

// Scrub zeroes the payload.
func (p *Page) Scrub() {
	clear(p.data[HeaderSize:])
}

// Validate checks the encoded header against the page metadata.
func (p *Page) Validate() error {
	if p.data == nil {
		return fmt.Errorf("page %d: use after free", p.id)
	}
	if got := binary.LittleEndian.Uint32(p.data[0:4]); got != magic {
		return fmt.Errorf("page %d: bad header magic %#x", p.id, got)
	}
	if got := binary.LittleEndian.Uint32(p.data[4:8]); got != p.id {
		return fmt.Errorf("page %d: header carries id %d", p.id, got)
	}
	if got := int(binary.LittleEndian.Uint32(p.data[8:12])); got != p.used {
		return fmt.Errorf("page %d: header used %d, metadata used %d", p.id, got, p.used)
	}
	return nil
}

func (p *Page) writeHeader() {
	h := p.data[:HeaderSize]
	binary.LittleEndian.PutUint32(h[0:4], magic)
	binary.LittleEndian.PutUint32(h[4:8], p.id)
	binary.LittleEndian.PutUint32(h[8:12], uint32(p.used)) //nolint:gosec // used <= payload size
	binary.LittleEndian.PutUint32(h[12:16], 0)
}

func (p *Page) free() error {
	if p.release == nil {
		return fmt.Errorf("page %d: double free", p.id)
	}
	release := p.release
	p.release = nil
	p.data = nil
	p.next = nil
	return release()
}

// Chain walks the list starting at head and returns its tail and length.
// With limit >= 0 the walk stops once it has seen limit+1 pages, so a
// result n > limit means the chain is longer than expected or cyclic.
func Chain(head *Page, limit int) (tail *Page, n int) {
	for p := head; p != nil; p = p.next {
		if limit >= 0 && n == limit {
			return tail, n + 1
		}
		tail = p
		n++
	}
	return tail, n
}
