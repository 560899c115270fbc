// Package parallel provides fork/join helpers for embarrassingly parallel
// work such as per-merchant feature computation.
package parallel

import (
	"runtime"
	"sync"
)

// ForEach executes fn(i) for every i in [0, items) across as many workers
// as there are CPU cores. Each index is handled exactly once; fn must only
// write to state owned by its index.
func ForEach(items int, fn func(i int)) {
	Ranges(items, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// Ranges divides [0, items) into contiguous chunks and executes fn on each
// chunk in parallel.
func Ranges(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so the last chunk picks up the remainder.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// RangesWithThreshold runs sequentially when items is at or below the
// threshold, avoiding goroutine overhead for small inputs.
func RangesWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Ranges(items, fn)
}
