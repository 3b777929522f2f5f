package models

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/stochsim/rng"
)

// HistoricalGBM resamples daily returns from a normal distribution fitted to
// historical log returns and compounds them onto the initial price.
//
// The step is price[i] = price[i-1] * (1 + r_i) with r_i ~ N(MeanLogReturn,
// Volatility). It is the simple-return approximation of GBM, kept distinct
// from the exact log-normal update in RiskNeutralGBM.
type HistoricalGBM struct {
	InitialPrice  float64
	MeanLogReturn float64
	Volatility    float64
	StepCount     int
}

// NewHistoricalGBM builds a simulator from an estimate over steps days.
func NewHistoricalGBM(est HistoricalEstimate, steps int) *HistoricalGBM {
	return &HistoricalGBM{
		InitialPrice:  est.InitialPrice,
		MeanLogReturn: est.MeanLogReturn,
		Volatility:    est.Volatility,
		StepCount:     steps,
	}
}

func (h *HistoricalGBM) Validate() error {
	switch {
	case !positive(h.InitialPrice):
		return fmt.Errorf("%w: initial price must be > 0, got %g", ErrInvalidParameter, h.InitialPrice)
	case math.IsNaN(h.MeanLogReturn) || math.IsInf(h.MeanLogReturn, 0):
		return fmt.Errorf("%w: mean log return must be finite, got %g", ErrInvalidParameter, h.MeanLogReturn)
	case math.IsNaN(h.Volatility) || math.IsInf(h.Volatility, 0) || h.Volatility < 0:
		return fmt.Errorf("%w: volatility must be >= 0, got %g", ErrInvalidParameter, h.Volatility)
	case h.StepCount < 1:
		return fmt.Errorf("%w: step count must be >= 1, got %d", ErrInvalidParameter, h.StepCount)
	}
	return nil
}

// Simulate draws one path of StepCount+1 prices. Times are trading-day
// indices 0..StepCount.
func (h *HistoricalGBM) Simulate(g rng.Generator) (PricePath, error) {
	if err := h.Validate(); err != nil {
		return PricePath{}, err
	}
	return h.simulate(g), nil
}

func (h *HistoricalGBM) simulate(g rng.Generator) PricePath {
	times := make([]float64, h.StepCount+1)
	prices := make([]float64, h.StepCount+1)
	prices[0] = h.InitialPrice

	for i := 1; i <= h.StepCount; i++ {
		ret := h.MeanLogReturn + h.Volatility*g.StandardNormal()
		prices[i] = prices[i-1] * (1 + ret)
		times[i] = float64(i)
	}

	return PricePath{Times: times, Prices: prices}
}

// SimulatePaths draws pathCount independent paths.
func (h *HistoricalGBM) SimulatePaths(g rng.Generator, pathCount int, opts EnsembleOptions) ([]PricePath, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if pathCount < 1 {
		return nil, fmt.Errorf("%w: path count must be >= 1, got %d", ErrInvalidParameter, pathCount)
	}

	paths := make([]PricePath, pathCount)
	err := ForEachPath(g, pathCount, opts, func(i int, g rng.Generator) error {
		paths[i] = h.simulate(g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
