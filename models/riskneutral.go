package models

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/stochsim/rng"
)

// RiskNeutralGBM is geometric Brownian motion under the pricing measure,
// discretized with the exact log-normal step
//
//	S[i] = S[i-1] * exp((r - sigma^2/2) dt + sigma sqrt(dt) z),  dt = T/steps.
type RiskNeutralGBM struct {
	Spot       float64
	Rate       float64
	Volatility float64
	Horizon    float64
	StepCount  int
}

// NewRiskNeutralGBM takes the process inputs out of a pricing request.
func NewRiskNeutralGBM(p SimulationParameters) *RiskNeutralGBM {
	return &RiskNeutralGBM{
		Spot:       p.InitialPrice,
		Rate:       p.RiskFreeRate,
		Volatility: p.Volatility,
		Horizon:    p.Horizon,
		StepCount:  p.StepCount,
	}
}

func (m *RiskNeutralGBM) Validate() error {
	switch {
	case !positive(m.Spot):
		return fmt.Errorf("%w: spot must be > 0, got %g", ErrInvalidParameter, m.Spot)
	case !positive(m.Horizon):
		return fmt.Errorf("%w: horizon must be > 0, got %g", ErrInvalidParameter, m.Horizon)
	case math.IsNaN(m.Volatility) || math.IsInf(m.Volatility, 0) || m.Volatility < 0:
		return fmt.Errorf("%w: volatility must be >= 0, got %g", ErrInvalidParameter, m.Volatility)
	case m.StepCount < 1:
		return fmt.Errorf("%w: step count must be >= 1, got %d", ErrInvalidParameter, m.StepCount)
	}
	return nil
}

func (m *RiskNeutralGBM) step() (drift, diffusion, dt float64) {
	dt = m.Horizon / float64(m.StepCount)
	drift = (m.Rate - 0.5*m.Volatility*m.Volatility) * dt
	diffusion = m.Volatility * math.Sqrt(dt)
	return drift, diffusion, dt
}

// Path draws a full path; Times are in years.
func (m *RiskNeutralGBM) Path(g rng.Generator) PricePath {
	drift, diffusion, dt := m.step()

	times := make([]float64, m.StepCount+1)
	prices := make([]float64, m.StepCount+1)
	prices[0] = m.Spot
	for i := 1; i <= m.StepCount; i++ {
		prices[i] = prices[i-1] * math.Exp(drift+diffusion*g.StandardNormal())
		times[i] = float64(i) * dt
	}
	return PricePath{Times: times, Prices: prices}
}

// Terminal draws a path without keeping it and returns S_T. It consumes the
// same draws as Path.
func (m *RiskNeutralGBM) Terminal(g rng.Generator) float64 {
	drift, diffusion, _ := m.step()

	price := m.Spot
	for i := 0; i < m.StepCount; i++ {
		price *= math.Exp(drift + diffusion*g.StandardNormal())
	}
	return price
}
