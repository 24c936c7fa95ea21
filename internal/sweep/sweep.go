// Package sweep runs batches of independent stability assessments across
// a parameter grid. Runs share no mutable state, so the only coordination
// is the worker pool; result order is deterministic regardless of
// scheduling.
package sweep

import (
	"context"
	"runtime"
	"sync"

	"github.com/exolab/exomoon/internal/params"
	"github.com/exolab/exomoon/internal/stability"
)

// Point is the outcome for one grid cell.
type Point struct {
	AmHill float64
	Report *stability.Report
	Err    error
}

// Grid sweeps the moon's Hill fraction over a fixed system.
type Grid struct {
	Base          params.System
	HillFractions []float64
	Years         float64
	EscapeFactor  float64

	// Workers bounds the pool; <= 0 means GOMAXPROCS.
	Workers int
}

// HillRange builds n evenly spaced Hill fractions across [lo, hi].
func HillRange(lo, hi float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Run assesses every grid cell. An individual run's failure lands in its
// Point; only context cancellation aborts the sweep as a whole. A run
// already in flight is never interrupted mid-integration.
func (g Grid) Run(ctx context.Context) ([]Point, error) {
	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(g.HillFractions) {
		workers = len(g.HillFractions)
	}

	points := make([]Point, len(g.HillFractions))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p := g.Base
				p.AmHill = g.HillFractions[i]
				rep, err := stability.Assess(p, g.Years, g.EscapeFactor)
				points[i] = Point{AmHill: p.AmHill, Report: rep, Err: err}
			}
		}()
	}

	var ctxErr error
feed:
	for i := range g.HillFractions {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}
	return points, nil
}
