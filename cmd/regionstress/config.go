package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the stress run configuration, read from a TOML file.
type Config struct {
	// Workers is the number of mutator threads, each with its own root.
	Workers int `toml:"workers"`
	// Duration bounds the run.
	Duration duration `toml:"duration"`
	// Seed makes the workload reproducible.
	Seed int64 `toml:"seed"`

	Root     RootConfig     `toml:"root"`
	Workload WorkloadConfig `toml:"workload"`
	Limits   LimitsConfig   `toml:"limits"`
	Log      LogConfig      `toml:"log"`
}

// RootConfig configures every descriptor root.
type RootConfig struct {
	PageSize      int    `toml:"page-size"`
	PoolLimit     int    `toml:"pool-limit"`
	QueueCapacity uint32 `toml:"queue-capacity"`
	// Heap backs pages with Go heap memory instead of anonymous mappings.
	Heap          bool `toml:"heap"`
	DebugChecks   bool `toml:"debug-checks"`
	Trace         bool `toml:"trace"`
	MeterMemory   bool `toml:"meter-memory"`
	MeterOverhead bool `toml:"meter-overhead"`
}

// WorkloadConfig shapes a single transactional window.
type WorkloadConfig struct {
	// MaxPages caps the pages a window allocates; sizes are Zipf-skewed.
	MaxPages int `toml:"max-pages"`
	// TickEvery advances a root's epoch every N windows.
	TickEvery int `toml:"tick-every"`
	// ShareRatio is the fraction of regions whose last reference is
	// drained by a peer root.
	ShareRatio float64 `toml:"share-ratio"`
}

// LimitsConfig bounds process resources.
type LimitsConfig struct {
	MemoryBytes  int64 `toml:"memory-bytes"`
	OpsPerSecond int64 `toml:"ops-per-second"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// DefaultConfig returns the configuration used for omitted keys.
func DefaultConfig() Config {
	return Config{
		Workers:  4,
		Duration: duration{10 * time.Second},
		Seed:     42,
		Root: RootConfig{
			PageSize:      4096,
			PoolLimit:     10,
			QueueCapacity: 1024,
		},
		Workload: WorkloadConfig{
			MaxPages:   16,
			TickEvery:  64,
			ShareRatio: 0.25,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func parseConfigFromFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("decode %s: unknown keys %v", path, undecoded)
	}
	return cfg, nil
}

// Validate reports every unusable setting.
func (c Config) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Duration.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %s", c.Duration))
	}
	if c.Workload.MaxPages <= 0 {
		errs = append(errs, fmt.Errorf("workload.max-pages must be positive, got %d", c.Workload.MaxPages))
	}
	if c.Workload.TickEvery <= 0 {
		errs = append(errs, fmt.Errorf("workload.tick-every must be positive, got %d", c.Workload.TickEvery))
	}
	if c.Workload.ShareRatio < 0 || c.Workload.ShareRatio > 1 {
		errs = append(errs, fmt.Errorf("workload.share-ratio must be in [0,1], got %g", c.Workload.ShareRatio))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if _, err := c.logLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
