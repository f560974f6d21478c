package audit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Lifecycle(t *testing.T) {
	l := New()

	require.NoError(t, l.Adopt(1))
	require.NoError(t, l.Adopt(2))
	assert.Equal(t, Counts{Region: 2}, l.Counts())

	require.NoError(t, l.Move(1, OwnerRegion, OwnerPool))
	require.NoError(t, l.Move(2, OwnerRegion, OwnerFreed))
	assert.Equal(t, Counts{Pool: 1, Freed: 1}, l.Counts())
	assert.Equal(t, uint64(2), l.Counts().Total())

	o, ok := l.Owner(1)
	require.True(t, ok)
	assert.Equal(t, OwnerPool, o)

	_, ok = l.Owner(99)
	assert.False(t, ok)

	require.NoError(t, l.Move(1, OwnerPool, OwnerRegion))
	assert.True(t, l.Holds(OwnerRegion, 1))
	assert.False(t, l.Holds(OwnerRegion, 1, 2))
}

func TestLedger_Violations(t *testing.T) {
	l := New()
	require.NoError(t, l.Adopt(7))

	// Adopting a known page twice
	var v *ViolationError
	err := l.Adopt(7)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, OwnerRegion, v.Got)

	// Pooling a page that is not in a region
	require.NoError(t, l.Move(7, OwnerRegion, OwnerPool))
	err = l.Move(7, OwnerRegion, OwnerPool)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, OwnerPool, v.Got)
	assert.Contains(t, err.Error(), "held by pool")

	// Unknown page
	err = l.Move(8, OwnerPool, OwnerFreed)
	require.ErrorAs(t, err, &v)
	assert.Contains(t, err.Error(), "unknown")

	// Failed moves leave the ledger unchanged
	assert.Equal(t, Counts{Pool: 1}, l.Counts())
}

func TestLedger_Concurrent(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(base uint32) {
			defer wg.Done()
			for i := uint32(0); i < 100; i++ {
				id := base*1000 + i
				assert.NoError(t, l.Adopt(id))
				assert.NoError(t, l.Move(id, OwnerRegion, OwnerPool))
				assert.NoError(t, l.Move(id, OwnerPool, OwnerFreed))
			}
		}(uint32(w))
	}
	wg.Wait()
	assert.Equal(t, Counts{Freed: 400}, l.Counts())
}

func TestOwner_String(t *testing.T) {
	assert.Equal(t, "region", OwnerRegion.String())
	assert.Equal(t, "pool", OwnerPool.String())
	assert.Equal(t, "freed", OwnerFreed.String())
	assert.Equal(t, "owner(9)", Owner(9).String())
}
