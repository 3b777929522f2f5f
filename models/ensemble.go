package models

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bcdannyboy/stochsim/rng"
)

// EnsembleOptions controls how an ensemble of independent paths is run.
type EnsembleOptions struct {
	// Workers > 1 runs the ensemble in parallel, one child stream per
	// worker. Zero or one keeps the sequential reference behaviour.
	Workers int

	// Progress, if set, is called once per finished path. It may be called
	// from several goroutines at once.
	Progress func()
}

// ForEachPath calls fn for path indices 0..count-1.
//
// Sequentially, every path draws from g in index order, so a seeded g always
// reproduces the same ensemble. In parallel, g must be an rng.Splitter: the
// indices are cut into Workers contiguous blocks and block w draws from the
// w-th child of g.Split(Workers), which keeps results reproducible for a
// fixed (seed, Workers) pair. A g that cannot split runs sequentially.
func ForEachPath(g rng.Generator, count int, opts EnsembleOptions, fn func(i int, g rng.Generator) error) error {
	if count < 1 {
		return fmt.Errorf("%w: path count must be >= 1, got %d", ErrInvalidParameter, count)
	}

	splitter, canSplit := g.(rng.Splitter)
	workers := opts.Workers
	if workers > count {
		workers = count
	}
	if workers <= 1 || !canSplit {
		for i := 0; i < count; i++ {
			if err := fn(i, g); err != nil {
				return err
			}
			if opts.Progress != nil {
				opts.Progress()
			}
		}
		return nil
	}

	streams := splitter.Split(workers)
	block := (count + workers - 1) / workers

	var eg errgroup.Group
	eg.SetLimit(workers)
	for w := 0; w < workers; w++ {
		start := w * block
		end := start + block
		if end > count {
			end = count
		}
		if start >= end {
			break
		}
		stream := streams[w]
		eg.Go(func() error {
			for i := start; i < end; i++ {
				if err := fn(i, stream); err != nil {
					return err
				}
				if opts.Progress != nil {
					opts.Progress()
				}
			}
			return nil
		})
	}
	return eg.Wait()
}
