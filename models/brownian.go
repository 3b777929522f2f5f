package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bcdannyboy/stochsim/rng"
)

// BrownianMotion samples a standard Wiener process in Dimension independent
// axes on StepCount evenly spaced points of [0, Horizon].
type BrownianMotion struct {
	Horizon   float64
	StepCount int
	Dimension int
}

func (b *BrownianMotion) Validate() error {
	switch {
	case !positive(b.Horizon):
		return fmt.Errorf("%w: horizon must be > 0, got %g", ErrInvalidParameter, b.Horizon)
	case b.StepCount < 2:
		return fmt.Errorf("%w: step count must be >= 2, got %d", ErrInvalidParameter, b.StepCount)
	case b.Dimension < 1:
		return fmt.Errorf("%w: dimension must be >= 1, got %d", ErrInvalidParameter, b.Dimension)
	}
	return nil
}

// Times returns the sampling grid. The first point is 0 and the last is
// exactly Horizon.
func (b *BrownianMotion) Times() []float64 {
	times := make([]float64, b.StepCount)
	last := float64(b.StepCount - 1)
	for i := range times {
		times[i] = b.Horizon * float64(i) / last
	}
	times[len(times)-1] = b.Horizon
	return times
}

// Simulate draws one path. Increments are drawn row by row, every axis of
// step 1 before any axis of step 2.
func (b *BrownianMotion) Simulate(g rng.Generator) (BrownianPath, error) {
	if err := b.Validate(); err != nil {
		return BrownianPath{}, err
	}
	return b.simulate(g, b.Times()), nil
}

func (b *BrownianMotion) simulate(g rng.Generator, times []float64) BrownianPath {
	scale := math.Sqrt(times[1] - times[0])

	values := mat.NewDense(b.StepCount, b.Dimension, nil)
	for i := 1; i < b.StepCount; i++ {
		for j := 0; j < b.Dimension; j++ {
			values.Set(i, j, values.At(i-1, j)+scale*g.StandardNormal())
		}
	}

	return BrownianPath{Times: times, Values: values}
}

// SimulatePaths draws count independent paths. The paths share one Times
// slice, which must not be modified.
func (b *BrownianMotion) SimulatePaths(g rng.Generator, count int, opts EnsembleOptions) ([]BrownianPath, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: path count must be >= 1, got %d", ErrInvalidParameter, count)
	}

	times := b.Times()
	paths := make([]BrownianPath, count)
	err := ForEachPath(g, count, opts, func(i int, g rng.Generator) error {
		paths[i] = b.simulate(g, times)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
