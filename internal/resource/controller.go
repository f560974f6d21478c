package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for page memory held from the OS.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxThreads is the maximum number of threads owning a root at once.
	// If 0, defaults to 1.
	MaxThreads int64

	// OpsPerSecond paces mutator operations.
	// If 0, unlimited.
	OpsPerSecond int64
}

// Controller manages process-wide resources (memory, threads, op rate).
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64
	memPeak atomic.Int64

	// Threads
	threadSem *semaphore.Weighted

	// Ops
	opLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = 1
	}

	c := &Controller{
		cfg:       cfg,
		threadSem: semaphore.NewWeighted(cfg.MaxThreads),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.OpsPerSecond > 0 {
		c.opLimiter = rate.NewLimiter(rate.Limit(cfg.OpsPerSecond), int(cfg.OpsPerSecond))
	}

	return c
}

// AcquireMemory attempts to reserve memory.
// Returns ErrMemoryLimitExceeded if limit would be exceeded.
// Non-blocking - callers control retry/backoff policy.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	used := c.memUsed.Add(bytes)
	for {
		peak := c.memPeak.Load()
		if used <= peak || c.memPeak.CompareAndSwap(peak, used) {
			break
		}
	}
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryPeak returns the highest memory usage observed, in bytes.
func (c *Controller) MemoryPeak() int64 {
	if c == nil {
		return 0
	}
	return c.memPeak.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireThread reserves a thread slot.
// Blocks if all slots are busy.
func (c *Controller) AcquireThread(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.threadSem.Acquire(ctx, 1)
}

// TryAcquireThread attempts to reserve a thread slot without blocking.
func (c *Controller) TryAcquireThread() bool {
	if c == nil {
		return true
	}
	return c.threadSem.TryAcquire(1)
}

// ReleaseThread releases a thread slot.
func (c *Controller) ReleaseThread() {
	if c == nil {
		return
	}
	c.threadSem.Release(1)
}

// WaitOps waits until the op limit allows n more operations.
func (c *Controller) WaitOps(ctx context.Context, n int) error {
	if c == nil || c.opLimiter == nil {
		return nil
	}
	return c.opLimiter.WaitN(ctx, n)
}

// TryOps attempts to take n op tokens without blocking.
// Returns true if tokens were acquired, false otherwise.
func (c *Controller) TryOps(n int) bool {
	if c == nil || c.opLimiter == nil {
		return true
	}
	return c.opLimiter.AllowN(time.Now(), n)
}
