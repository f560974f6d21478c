// Package page implements fixed-size region pages and the allocators that
// obtain them from, and return them to, the operating system.
//
// # Layout
//
// Every page is a single slab of Size bytes. The first HeaderSize bytes hold
// an encoded header; the rest is the bump-allocation payload:
//
//	┌────────────┬──────────┬────────────┬──────────┬──────────────────────┐
//	│ magic (4B) │ id (4B)  │ used (4B)  │ rsvd (4B)│ payload (Size - 16B) │
//	└────────────┴──────────┴────────────┴──────────┴──────────────────────┘
//
// The header mirrors the Go-side metadata so that a page can be validated
// when a chain is walked under debug checks.
//
// # Ownership
//
// A page is owned by exactly one of: a region's chain, a page pool, or the
// OS (after Free). Pages never move between allocators; Free must be called
// on the allocator that produced the page.
package page
