// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package workerspool runs indexed work over a fixed number of workers, each with its own
// seeded random source, so results are reproducible for a given seed and number of workers.
package workerspool

import (
	"math/rand"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool of workers. Worker i uses a random source seeded with Seed()+i.
type Pool struct {
	numWorkers int
	seed       int64
}

// New returns a Pool with numWorkers workers. If numWorkers <= 0, runtime.NumCPU() is used.
func New(numWorkers int, seed int64) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{numWorkers: numWorkers, seed: seed}
}

// NumWorkers returns the number of workers.
func (p *Pool) NumWorkers() int { return p.numWorkers }

// Seed returns the base seed of the workers' random sources.
func (p *Pool) Seed() int64 { return p.seed }

// NewRand returns a new random source for the given worker.
func (p *Pool) NewRand(worker int) *rand.Rand {
	return rand.New(rand.NewSource(p.seed + int64(worker)))
}

// Run calls fn for every index in [0, n), and waits for them to finish.
//
// Worker w processes indices w, w+NumWorkers(), w+2*NumWorkers(), ... in order, drawing from its own
// random source: for a given seed and number of workers every index always sees the same random
// draws.
//
// It returns the first error returned by fn. After an error, workers stop before their next index.
func (p *Pool) Run(n int, fn func(rng *rand.Rand, index int) error) error {
	var (
		g       errgroup.Group
		stopped atomic.Bool
	)
	for worker := range min(p.numWorkers, n) {
		g.Go(func() error {
			rng := p.NewRand(worker)
			for index := worker; index < n; index += p.numWorkers {
				if stopped.Load() {
					return nil
				}
				if err := fn(rng, index); err != nil {
					stopped.Store(true)
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
