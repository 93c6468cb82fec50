// Package tickpool provides the bounded data-parallel worker pool used by
// the agent decision phase (spec.md §5): it partitions a batch of
// independent per-entity computations across goroutines, guaranteeing the
// same results as serial execution because each unit of work only ever
// reads its own entity's slice of a read-only snapshot and writes to its
// own output slot.
package tickpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of goroutines used to evaluate a per-tick batch.
type Pool struct {
	workers int
}

// New returns a Pool sized to the number of logical CPUs. A workers value
// <= 0 falls back to runtime.GOMAXPROCS(0).
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Run evaluates fn(i) for i in [0, n) using up to p.workers goroutines and
// blocks until every index has been processed or the first error/panic is
// observed. Each call to fn must only touch index i's own state: the pool
// makes no effort to serialize access across indices, by design (spec.md
// §5 forbids one agent's system from observing another's mutable state
// within the same phase).
func (p *Pool) Run(ctx context.Context, n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	workers := p.workers
	if workers > n {
		workers = n
	}
	g, ctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
