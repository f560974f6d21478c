// Package mmap provides anonymous read-write mappings used as region page
// backing store.
//
// # Overview
//
// Pages obtained here live outside the Go heap. Closing a mapping hands the
// memory straight back to the operating system, bypassing the Go allocator
// and any metering wrapper installed around it. This is the raw free that
// the page pool spills to when it is saturated.
//
// # Usage
//
//	m, err := mmap.MapAnon(4096)
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE, munmap(2)
//   - Windows: VirtualAlloc with MEM_RESERVE|MEM_COMMIT, VirtualFree
//
// # Thread Safety
//
// Close is idempotent and protected by an atomic flag. Callers must ensure
// nobody touches Bytes() after Close() returns.
package mmap
