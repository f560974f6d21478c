// Command regionstress drives descriptor roots with a randomized mutator
// workload and reports reclamation statistics.
//
//	regionstress -cfg ./regionstress.toml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/stmregion"
)

var (
	configFile = flag.String("cfg", "", "toml configuration used to start regionstress")
	workers    = flag.Int("workers", 0, "override the number of mutator threads")
)

func main() {
	flag.Parse()

	cfg, err := parseConfigFromFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse config: %v\n", err)
		os.Exit(2)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting stress run",
		"workers", cfg.Workers,
		"duration", cfg.Duration.String(),
		"page_size", cfg.Root.PageSize,
		"pool_limit", cfg.Root.PoolLimit,
	)

	report, err := run(ctx, cfg, logger)
	if err != nil {
		logger.Error("stress run failed", "error", err)
		os.Exit(1)
	}
	printReport(os.Stdout, report)
}

func newLogger(cfg LogConfig, w io.Writer) (*stmregion.Logger, error) {
	level, err := Config{Log: cfg}.logLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return stmregion.NewLogger(slog.NewJSONHandler(w, opts)), nil
	}
	return stmregion.NewLogger(slog.NewTextHandler(w, opts)), nil
}

func printReport(w io.Writer, r *Report) {
	m := r.Metrics
	fmt.Fprintf(w, "windows:        %d (%d page allocations refused)\n", r.Windows, r.AllocFailure)
	fmt.Fprintf(w, "drains:         %d (%d recycled)\n", m.Drains, m.DrainRecycles)
	fmt.Fprintf(w, "recycles:       %d active / %d zombie\n", m.ActiveRecycles, m.ZombieRecycles)
	fmt.Fprintf(w, "pages:          %d pooled / %d spilled, pool hit ratio %.2f\n", m.PooledPages, m.SpilledPages, m.PoolHitRatio)
	fmt.Fprintf(w, "os pages:       %d allocated / %d freed / %d live\n", r.Pages.Allocated, r.Pages.Freed, r.Pages.Live)
	fmt.Fprintf(w, "memory peak:    %.2f MB\n", float64(r.MemoryPeak)/(1024*1024))
	if m.PooledBytes > 0 || m.NeededBytes > 0 {
		fmt.Fprintf(w, "recycled bytes: %d pooled / %d needed / %d freed\n", m.PooledBytes, m.NeededBytes, m.FreedBytes)
	}
	for _, s := range r.Roots {
		fmt.Fprintf(w, "  %s\n", s)
	}
}
