package stmregion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	mc := &BasicMetricsCollector{}

	mc.RecordDrain(false)
	mc.RecordDrain(true)
	mc.RecordRecycle(RecycleActive, 2)
	mc.RecordRecycle(RecycleZombie, 3)
	mc.RecordPageAlloc(true)
	mc.RecordPageAlloc(false)
	mc.RecordPageAlloc(false)
	mc.RecordPooled(4)
	mc.RecordSpilled(1)
	mc.RecordMemory(256, 100, 64)
	mc.RecordOverhead(64)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.Drains)
	assert.Equal(t, int64(1), stats.DrainRecycles)
	assert.Equal(t, int64(1), stats.ActiveRecycles)
	assert.Equal(t, int64(1), stats.ZombieRecycles)
	assert.Equal(t, int64(5), stats.LegacyPages)
	assert.Equal(t, int64(1), stats.PoolAllocs)
	assert.Equal(t, int64(2), stats.OSAllocs)
	assert.Equal(t, int64(4), stats.PooledPages)
	assert.Equal(t, int64(1), stats.SpilledPages)
	assert.Equal(t, int64(256), stats.PooledBytes)
	assert.Equal(t, int64(100), stats.NeededBytes)
	assert.Equal(t, int64(64), stats.FreedBytes)
	assert.Equal(t, int64(64), stats.OverheadBytes)
	assert.InDelta(t, 1.0/3.0, stats.PoolHitRatio, 1e-9)
}

func TestBasicMetricsCollector_EmptyRatio(t *testing.T) {
	mc := &BasicMetricsCollector{}
	assert.Zero(t, mc.GetStats().PoolHitRatio)
}

func TestMetrics_MeteringDisabled(t *testing.T) {
	mc := &BasicMetricsCollector{}
	root, _ := newTestRoot(t, WithMetricsCollector(mc))

	reg := buildRegion(t, root, 3)
	expireAndDrain(t, root, reg)

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.ActiveRecycles)
	assert.Equal(t, int64(2), stats.PooledPages)
	assert.Zero(t, stats.PooledBytes)
	assert.Zero(t, stats.NeededBytes)
	assert.Zero(t, stats.OverheadBytes)
}

func TestMetrics_PoolHits(t *testing.T) {
	mc := &BasicMetricsCollector{}
	root, _ := newTestRoot(t, WithMetricsCollector(mc))

	reg := buildRegion(t, root, 3)
	expireAndDrain(t, root, reg)
	_ = buildRegion(t, root, 2)

	stats := mc.GetStats()
	assert.Equal(t, int64(3), stats.OSAllocs)
	assert.Equal(t, int64(2), stats.PoolAllocs)
	assert.InDelta(t, 0.4, stats.PoolHitRatio, 1e-9)
}

func TestNoopMetricsCollector(t *testing.T) {
	var mc MetricsCollector = NoopMetricsCollector{}

	assert.NotPanics(t, func() {
		mc.RecordDrain(true)
		mc.RecordRecycle(RecycleZombie, 1)
		mc.RecordPageAlloc(true)
		mc.RecordPooled(1)
		mc.RecordSpilled(1)
		mc.RecordMemory(1, 1, 1)
		mc.RecordOverhead(1)
	})
}
