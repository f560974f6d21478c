package stmregion

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stmregion/internal/page"
)

const (
	testPageSize  = 64
	testPoolLimit = 4
)

func newTestRoot(t *testing.T, opts ...Option) (*Root, *page.HeapAllocator) {
	t.Helper()

	alloc, err := page.NewHeapAllocator(testPageSize)
	require.NoError(t, err)

	base := []Option{
		WithAllocator(alloc),
		WithPoolLimit(testPoolLimit),
		WithDebugChecks(true),
	}
	root, err := NewRoot(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	return root, alloc
}

// buildRegion returns a retained region of n pages stamped with the current
// epoch. The last page keeps room for further small allocations.
func buildRegion(t *testing.T, root *Root, n int) *Region {
	t.Helper()

	reg := NewRegion()
	reg.Retain()
	for range n - 1 {
		_, err := root.Alloc(reg, root.PayloadSize())
		require.NoError(t, err)
	}
	if n > 0 {
		_, err := root.Alloc(reg, 8)
		require.NoError(t, err)
	}
	require.Equal(t, n, reg.Pages())
	return reg
}

// touch stamps reg with the current epoch without adding a page.
func touch(t *testing.T, root *Root, reg *Region) {
	t.Helper()

	pages := reg.Pages()
	_, err := root.Alloc(reg, 8)
	require.NoError(t, err)
	require.Equal(t, pages, reg.Pages())
}

// fillPool pools n pages on an empty pool by recycling a zombie region.
// It advances the epoch.
func fillPool(t *testing.T, root *Root, n int) {
	t.Helper()

	require.Zero(t, root.PooledPages())
	filler := buildRegion(t, root, n)
	root.Tick()
	expireAndDrain(t, root, filler)
	require.Equal(t, n, root.PooledPages())
}

func expireAndDrain(t *testing.T, root *Root, reg *Region) {
	t.Helper()

	require.NoError(t, root.Expire(reg))
	require.True(t, root.DrainOne())
}
