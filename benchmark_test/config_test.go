package benchmark_test

import (
	"testing"

	"github.com/hupe1980/stmregion"
	"github.com/hupe1980/stmregion/internal/page"
	"github.com/hupe1980/stmregion/testutil"
)

// ============================================================================
// Benchmark Configuration
// ============================================================================

// Standard page sizes used across benchmarks for consistency.
const (
	pageSmall   = 256
	pageDefault = stmregion.DefaultPageSize
	pageLarge   = 64 << 10
)

// Standard chain lengths, in pages.
var chainLengths = []int{1, 4, 16, 64}

// Seed for deterministic benchmarks - enables reproducible comparisons.
const benchSeed = 42

// ============================================================================
// Benchmark Helpers
// ============================================================================

// newBenchRoot creates a root over heap pages so benchmarks measure the
// reclamation path instead of mmap syscalls, unless mmap is requested.
func newBenchRoot(tb testing.TB, pageSize, poolLimit int, mmap bool, opts ...stmregion.Option) *stmregion.Root {
	tb.Helper()

	var (
		alloc page.Allocator
		err   error
	)
	if mmap {
		alloc, err = page.NewMmapAllocator(pageSize)
	} else {
		alloc, err = page.NewHeapAllocator(pageSize)
	}
	if err != nil {
		tb.Fatal(err)
	}

	base := []stmregion.Option{
		stmregion.WithAllocator(alloc),
		stmregion.WithPoolLimit(poolLimit),
	}
	root, err := stmregion.NewRoot(append(base, opts...)...)
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() { _ = root.Close() })
	return root
}

// fillRegion allocates whole payloads until reg spans pages pages.
func fillRegion(tb testing.TB, root *stmregion.Root, reg *stmregion.Region, pages int) {
	tb.Helper()

	for reg.Pages() < pages {
		if _, err := root.Alloc(reg, root.PayloadSize()); err != nil {
			tb.Fatal(err)
		}
	}
}

// allocSizes returns a deterministic allocation mix for a page size.
func allocSizes(pageSize, n int) []int {
	rng := testutil.NewRNG(benchSeed)
	return rng.AllocSizes(n, 8, (pageSize-stmregion.PageHeaderSize)/4)
}
