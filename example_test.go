package stmregion_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/hupe1980/stmregion"
)

// Example_activeRecycle demonstrates recycling a region in the epoch of its
// last use: the first page is kept, the rest goes to the pool.
func Example_activeRecycle() {
	root, err := stmregion.NewRoot(stmregion.WithPoolLimit(4))
	if err != nil {
		log.Fatal(err)
	}
	defer root.Close()

	reg := stmregion.NewRegion()
	reg.Retain()
	for range 3 {
		if _, err := root.Alloc(reg, root.PayloadSize()); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println("pages before:", reg.Pages())

	if err := root.Expire(reg); err != nil {
		log.Fatal(err)
	}
	root.Drain()

	fmt.Println("pages after:", reg.Pages())
	fmt.Println("pooled:", root.PooledPages())
	// Output:
	// pages before: 3
	// pages after: 1
	// pooled: 2
}

// Example_zombieRecycle demonstrates a region whose epoch has passed: every
// page is released and the surplus beyond the pool limit is freed.
func Example_zombieRecycle() {
	root, err := stmregion.NewRoot(stmregion.WithPoolLimit(4))
	if err != nil {
		log.Fatal(err)
	}
	defer root.Close()

	reg := stmregion.NewRegion()
	reg.Retain()
	for range 6 {
		if _, err := root.Alloc(reg, root.PayloadSize()); err != nil {
			log.Fatal(err)
		}
	}

	root.Tick()
	if err := root.Expire(reg); err != nil {
		log.Fatal(err)
	}
	root.Drain()

	stats := root.Stats()
	fmt.Println("state:", reg.State())
	fmt.Println("pooled:", stats.PooledPages)
	fmt.Println("spilled:", stats.PagesSpilled)
	// Output:
	// state: drained
	// pooled: 4
	// spilled: 2
}

// Example_sharedRegion demonstrates two descriptor references on one region:
// only the drain that drops the last one recycles it.
func Example_sharedRegion() {
	root, err := stmregion.NewRoot()
	if err != nil {
		log.Fatal(err)
	}
	defer root.Close()

	reg := stmregion.NewRegion()
	reg.Retain()
	reg.Retain()
	if _, err := root.Alloc(reg, 128); err != nil {
		log.Fatal(err)
	}

	for range 2 {
		if err := root.Expire(reg); err != nil {
			log.Fatal(err)
		}
		root.DrainOne()
		fmt.Printf("dc=%d generation=%d\n", reg.DC(), reg.Generation())
	}
	// Output:
	// dc=1 generation=0
	// dc=0 generation=1
}

// Example_allocTooLarge demonstrates the payload bound on a single allocation.
func Example_allocTooLarge() {
	root, err := stmregion.NewRoot(stmregion.WithPageSize(256))
	if err != nil {
		log.Fatal(err)
	}
	defer root.Close()

	_, err = root.Alloc(stmregion.NewRegion(), 1024)
	fmt.Println(errors.Is(err, stmregion.ErrAllocTooLarge))
	fmt.Println(root.PayloadSize())
	// Output:
	// true
	// 240
}
