package stmregion

import (
	"log/slog"

	"github.com/hupe1980/stmregion/internal/expiry"
	"github.com/hupe1980/stmregion/internal/page"
)

const (
	// DefaultPageSize is the default region page size (4 KiB).
	DefaultPageSize = page.DefaultSize
	// PageHeaderSize is the per-page header; the payload is the rest.
	PageHeaderSize = page.HeaderSize
	// DefaultPoolLimit is the default page pool capacity, in pages.
	DefaultPoolLimit = 10
	// DefaultQueueCapacity is the default expired-descriptor queue capacity.
	DefaultQueueCapacity = expiry.DefaultCapacity
)

type options struct {
	pageSize      int
	poolLimit     int
	queueCapacity uint32
	debugChecks   bool
	trace         bool
	meterMemory   bool
	meterOverhead bool
	allocator     page.Allocator
	queue         ExpiredQueue
	ledger        *Ledger
	logger        *Logger
	metrics       MetricsCollector
}

// Option configures a Root.
type Option func(*options)

// WithPageSize sets the region page size in bytes, header included.
// It is ignored when WithAllocator supplies the page source.
func WithPageSize(n int) Option {
	return func(o *options) {
		o.pageSize = n
	}
}

// WithPoolLimit sets how many free pages the root keeps for reuse before
// returning surplus pages to the OS. Zero disables pooling.
func WithPoolLimit(n int) Option {
	return func(o *options) {
		o.poolLimit = n
	}
}

// WithQueueCapacity sizes the default expired-descriptor queue.
func WithQueueCapacity(n uint32) Option {
	return func(o *options) {
		o.queueCapacity = n
	}
}

// WithDebugChecks enables pre- and postcondition checks around every
// recycle, payload scrubbing of pooled pages, and the ownership ledger.
// Checks walk page chains and are O(pages).
func WithDebugChecks(enabled bool) Option {
	return func(o *options) {
		o.debugChecks = enabled
	}
}

// WithTrace logs every drain and recycle at debug level.
func WithTrace(enabled bool) Option {
	return func(o *options) {
		o.trace = enabled
	}
}

// WithMemoryMetering reports pooled, needed, and freed bytes to the
// metrics collector. Each recycle walks its legacy chain.
func WithMemoryMetering(enabled bool) Option {
	return func(o *options) {
		o.meterMemory = enabled
	}
}

// WithOverheadMetering reports page header overhead of pooled pages to the
// metrics collector.
func WithOverheadMetering(enabled bool) Option {
	return func(o *options) {
		o.meterOverhead = enabled
	}
}

// WithAllocator sets the page source. If nil is passed, an mmap allocator
// of the configured page size is used.
func WithAllocator(a page.Allocator) Option {
	return func(o *options) {
		o.allocator = a
	}
}

// WithExpiredQueue sets the expired-descriptor queue. If nil is passed, a
// bounded lock-free queue is used.
func WithExpiredQueue(q ExpiredQueue) Option {
	return func(o *options) {
		o.queue = q
	}
}

// WithLedger shares an ownership ledger between roots. It implies nothing
// unless debug checks are enabled. Without it, debug-checked roots use a
// process-wide ledger.
func WithLedger(l *Ledger) Option {
	return func(o *options) {
		o.ledger = l
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := stmregion.NewJSONLogger(slog.LevelDebug)
//	root, _ := stmregion.NewRoot(stmregion.WithLogger(logger), stmregion.WithTrace(true))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		pageSize:      DefaultPageSize,
		poolLimit:     DefaultPoolLimit,
		queueCapacity: DefaultQueueCapacity,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	return o
}
