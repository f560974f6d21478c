package stmregion

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegion_New(t *testing.T) {
	a, b := NewRegion(), NewRegion()

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, StateFresh, a.State())
	assert.Zero(t, a.Age())
	assert.Zero(t, a.Pages())
	assert.Zero(t, a.DC())
	assert.Zero(t, a.Generation())
	assert.Zero(t, a.Used())
	assert.NoError(t, a.Check())
}

func TestRegion_RetainRelease(t *testing.T) {
	reg := NewRegion()

	assert.Equal(t, int64(1), reg.Retain())
	assert.Equal(t, int64(2), reg.Retain())
	assert.False(t, reg.Release())
	assert.True(t, reg.Release())
	assert.Zero(t, reg.DC())
}

func TestRegion_ReleaseUnderflow(t *testing.T) {
	reg := NewRegion()

	ie := recoverInvariant(t, func() { reg.Release() })
	assert.ErrorIs(t, ie, ErrInvariant)
	assert.Equal(t, "release", ie.Op)
	assert.Equal(t, reg.ID(), ie.Region)
	assert.Contains(t, ie.Error(), "underflow: 0 before release")

	reg = NewRegion()
	reg.Retain()
	assert.True(t, reg.Release())
	ie = recoverInvariant(t, func() { reg.Release() })
	assert.ErrorIs(t, ie, ErrInvariant)
}

func TestRegion_ReleaseDoesNotRecycle(t *testing.T) {
	root, _ := newTestRoot(t)
	reg := buildRegion(t, root, 3)

	assert.True(t, reg.Release())
	assert.Equal(t, 3, reg.Pages())
	assert.Zero(t, reg.Generation())
	assert.Zero(t, root.PooledPages())
}

func TestRegion_ConcurrentRelease(t *testing.T) {
	const n = 64

	reg := NewRegion()
	for range n {
		reg.Retain()
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		last int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.Release() {
				mu.Lock()
				last++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, last)
	assert.Zero(t, reg.DC())
}

func TestRegion_Check(t *testing.T) {
	root, _ := newTestRoot(t)

	tests := []struct {
		name    string
		corrupt func(r *Region)
		detail  string
	}{
		{"negative count", func(r *Region) { r.dc.Store(-1) }, "negative"},
		{"missing last", func(r *Region) { r.last = nil }, "last page set=false"},
		{"count without pages", func(r *Region) { r.first, r.last = nil, nil }, "pages recorded"},
		{"pages while drained", func(r *Region) { r.state = StateDrained }, "holds pages"},
		{"short count", func(r *Region) { r.pages = 2 }, "longer than 2"},
		{"long count", func(r *Region) { r.pages = 4 }, "chain has 3 pages, 4 recorded"},
		{"wrong tail", func(r *Region) { r.last = r.first }, "not the chain tail"},
		{"cursor overrun", func(r *Region) { r.next = r.limit + 1 }, "cursor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := buildRegion(t, root, 3)
			require.NoError(t, reg.Check())

			tt.corrupt(reg)
			err := reg.Check()

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvariant)
			assert.Contains(t, err.Error(), tt.detail)
		})
	}

	t.Run("single page not self-terminated", func(t *testing.T) {
		reg := buildRegion(t, root, 1)
		other := buildRegion(t, root, 1)
		reg.first.SetNext(other.first)

		assert.ErrorContains(t, reg.Check(), "self-terminated")
	})

	t.Run("live without pages", func(t *testing.T) {
		reg := NewRegion()
		reg.state = StateLive
		assert.ErrorContains(t, reg.Check(), "live without pages")
	})

	t.Run("fresh with an age", func(t *testing.T) {
		reg := NewRegion()
		reg.age = 3
		assert.ErrorContains(t, reg.Check(), "fresh with age 3")
	})

	t.Run("drained without an age", func(t *testing.T) {
		reg := NewRegion()
		reg.state = StateDrained
		assert.ErrorContains(t, reg.Check(), "drained without an age")
	})
}

func TestRegion_String(t *testing.T) {
	root, _ := newTestRoot(t)
	reg := buildRegion(t, root, 2)

	s := reg.String()
	assert.Contains(t, s, fmt.Sprintf("id: %d", reg.ID()))
	assert.Contains(t, s, "state: live")
	assert.Contains(t, s, "pages: 2")
	assert.Contains(t, s, "dc: 1")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "fresh", StateFresh.String())
	assert.Equal(t, "live", StateLive.String())
	assert.Equal(t, "drained", StateDrained.String())
	assert.Equal(t, "state(9)", State(9).String())
	assert.Equal(t, "active", RecycleActive.String())
	assert.Equal(t, "zombie", RecycleZombie.String())
}

func TestInvariantError(t *testing.T) {
	cause := errors.New("boom")
	err := invariantf("recycle", 42, cause, "chain has %d pages", 3)

	assert.Equal(t, "recycle region 42: chain has 3 pages: boom", err.Error())
	assert.ErrorIs(t, err, ErrInvariant)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, cause, errors.Unwrap(err))

	plain := invariantf("drain", 0, nil, "no queue")
	assert.Equal(t, "drain: no queue", plain.Error())
	assert.Nil(t, plain.Unwrap())

	var target *InvariantError
	wrapped := fmt.Errorf("outer: %w", err)
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, uint64(42), target.Region)
}
