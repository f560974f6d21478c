// Package testutil provides testing utilities for stmregion.
//
// This package is intended for use in tests, benchmarks, and the stress
// command only. It provides a seeded, thread-safe RNG and generators for
// allocation workloads.
//
// # Random Workloads
//
//	rng := testutil.NewRNG(seed)
//	sizes := rng.AllocSizes(100, 1, 512) // uniform in [1, 512]
//	pages := rng.Zipf(16, 1.5)           // skewed toward short chains
//	if rng.Chance(0.1) {
//	    root.Tick()
//	}
package testutil
