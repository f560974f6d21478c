// Package resource implements the Controller for process-wide limits.
//
// The Controller governs three resources shared by all descriptor roots:
//
//   - Memory: bytes of region pages held from the OS (non-blocking, fail-fast)
//   - Threads: how many mutator/drainer threads may own a root at once
//   - Ops: a token bucket pacing mutator operations
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        Controller                           │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Memory Limit   │  Thread Slots   │  Op Rate Limiter        │
//	│  (fail-fast)    │  (semaphore)    │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireThread  │  WaitOps                │
//	│  ReleaseMemory  │  TryAcquire-    │  TryOps                 │
//	│  MemoryUsage    │  Thread         │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Memory Management
//
// The Controller satisfies page.MemoryAcquirer, so an allocator can charge
// every page against it:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	})
//	alloc, _ := page.NewMmapAllocator(4096, page.WithMemoryAcquirer(rc))
//
// When the limit is reached, page allocation fails with
// ErrMemoryLimitExceeded; recycling keeps working because it only moves
// pages or frees them.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
