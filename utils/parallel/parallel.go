// Package parallel runs independent units of work on a bounded number of
// goroutines.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers returns n if it is positive, runtime.NumCPU() otherwise.
func Workers(n int) int {
	if n > 0 {
		return n
	}

	return runtime.NumCPU()
}

// ForEach calls fn for every index in [0, n) using at most workers
// goroutines; workers <= 0 means one per CPU. Once a call fails no further
// indices are started, and the first error is returned after the running
// calls finish.
func ForEach(n, workers int, fn func(i int) error) error {
	workers = Workers(workers)
	if workers > n {
		workers = n
	}

	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}

		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	indices := make(chan int)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range indices {
				if err := fn(i); err != nil {
					return err
				}
			}

			return nil
		})
	}

	g.Go(func() error {
		defer close(indices)
		for i := 0; i < n; i++ {
			select {
			case indices <- i:
			case <-ctx.Done():
				return nil
			}
		}

		return nil
	})

	return g.Wait()
}
