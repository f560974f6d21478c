package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/stmregion"
	"github.com/hupe1980/stmregion/internal/page"
	"github.com/hupe1980/stmregion/internal/resource"
	"github.com/hupe1980/stmregion/testutil"
)

// Report summarizes a finished run.
type Report struct {
	Windows      int64
	AllocFailure int64
	Metrics      stmregion.MetricsStats
	Pages        page.Stats
	Ledger       stmregion.LedgerCounts
	MemoryPeak   int64
	Roots        []stmregion.Stats
}

type pending struct {
	reg *stmregion.Region
	gen uint64
}

type worker struct {
	id    int
	cfg   Config
	root  *stmregion.Root
	rc    *resource.Controller
	rng   *testutil.RNG
	inbox chan *stmregion.Region
	peer  chan<- *stmregion.Region

	pending []pending
	free    []*stmregion.Region

	windows  *atomic.Int64
	failures *atomic.Int64
}

func run(ctx context.Context, cfg Config, logger *stmregion.Logger) (*Report, error) {
	rc := resource.NewController(resource.Config{
		MemoryLimitBytes: cfg.Limits.MemoryBytes,
		MaxThreads:       int64(cfg.Workers),
		OpsPerSecond:     cfg.Limits.OpsPerSecond,
	})

	var (
		alloc page.Allocator
		err   error
	)
	if cfg.Root.Heap {
		alloc, err = page.NewHeapAllocator(cfg.Root.PageSize, page.WithMemoryAcquirer(rc))
	} else {
		alloc, err = page.NewMmapAllocator(cfg.Root.PageSize, page.WithMemoryAcquirer(rc))
	}
	if err != nil {
		return nil, fmt.Errorf("page allocator: %w", err)
	}

	ledger := stmregion.NewLedger()
	metrics := &stmregion.BasicMetricsCollector{}

	inboxes := make([]chan *stmregion.Region, cfg.Workers)
	for i := range inboxes {
		inboxes[i] = make(chan *stmregion.Region, cfg.Root.QueueCapacity)
	}

	var windows, failures atomic.Int64
	rng := testutil.NewRNG(cfg.Seed)
	workers := make([]*worker, cfg.Workers)
	for i := range workers {
		root, err := stmregion.NewRoot(
			stmregion.WithAllocator(alloc),
			stmregion.WithPoolLimit(cfg.Root.PoolLimit),
			stmregion.WithQueueCapacity(cfg.Root.QueueCapacity),
			stmregion.WithDebugChecks(cfg.Root.DebugChecks),
			stmregion.WithTrace(cfg.Root.Trace),
			stmregion.WithMemoryMetering(cfg.Root.MeterMemory),
			stmregion.WithOverheadMetering(cfg.Root.MeterOverhead),
			stmregion.WithLedger(ledger),
			stmregion.WithLogger(logger),
			stmregion.WithMetricsCollector(metrics),
		)
		if err != nil {
			return nil, err
		}
		workers[i] = &worker{
			id:       i,
			cfg:      cfg,
			root:     root,
			rc:       rc,
			rng:      rng.Fork(),
			inbox:    inboxes[i],
			peer:     inboxes[(i+1)%cfg.Workers],
			windows:  &windows,
			failures: &failures,
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration.Duration)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	for _, w := range workers {
		g.Go(func() error { return w.loop(gctx) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Retire references still in flight between roots
	for _, w := range workers {
		close(w.inbox)
		for reg := range w.inbox {
			if err := w.root.Expire(reg); err != nil {
				return nil, err
			}
		}
		w.root.Drain()
	}

	report := &Report{
		Windows:      windows.Load(),
		AllocFailure: failures.Load(),
		Metrics:      metrics.GetStats(),
		Ledger:       ledger.Counts(),
		MemoryPeak:   rc.MemoryPeak(),
	}
	var closeErr []error
	for _, w := range workers {
		report.Roots = append(report.Roots, w.root.Stats())
		closeErr = append(closeErr, w.root.Close())
	}
	report.Pages = alloc.Stats()
	return report, errors.Join(closeErr...)
}

func (w *worker) loop(ctx context.Context) error {
	if err := w.rc.AcquireThread(ctx); err != nil {
		return nil
	}
	defer w.rc.ReleaseThread()

	for n := 1; ctx.Err() == nil; n++ {
		if err := w.rc.WaitOps(ctx, 1); err != nil {
			return nil
		}
		if err := w.window(); err != nil {
			return fmt.Errorf("worker %d: %w", w.id, err)
		}
		if n%w.cfg.Workload.TickEvery == 0 {
			w.root.Tick()
		}
		w.windows.Add(1)
	}
	return nil
}

// window runs one transactional window: allocate into a region, hand its
// references to this root and possibly a peer, and drain.
func (w *worker) window() error {
	reg := w.region()
	reg.Retain()
	shared := w.rng.Chance(w.cfg.Workload.ShareRatio)
	if shared {
		reg.Retain()
	}

	pages := w.rng.Zipf(w.cfg.Workload.MaxPages, 1.5) + 1
	for reg.Pages() < pages {
		if _, err := w.root.Alloc(reg, w.rng.IntRange(1, w.root.PayloadSize())); err != nil {
			if errors.Is(err, resource.ErrMemoryLimitExceeded) {
				w.failures.Add(1)
				break
			}
			return err
		}
	}

	if shared {
		select {
		case w.peer <- reg:
		default:
			if err := w.root.Expire(reg); err != nil {
				return err
			}
		}
	}
	if err := w.root.Expire(reg); err != nil {
		return err
	}

inbox:
	for {
		select {
		case in := <-w.inbox:
			if err := w.root.Expire(in); err != nil {
				return err
			}
		default:
			break inbox
		}
	}
	w.root.Drain()
	return nil
}

// region returns a descriptor whose previous recycle has completed, or a
// new one.
func (w *worker) region() *stmregion.Region {
	kept := w.pending[:0]
	for _, p := range w.pending {
		if p.reg.Generation() != p.gen {
			w.free = append(w.free, p.reg)
		} else {
			kept = append(kept, p)
		}
	}
	w.pending = kept

	var reg *stmregion.Region
	if n := len(w.free); n > 0 {
		reg, w.free = w.free[n-1], w.free[:n-1]
	} else {
		reg = stmregion.NewRegion()
	}
	w.pending = append(w.pending, pending{reg: reg, gen: reg.Generation()})
	return reg
}
