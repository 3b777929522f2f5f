package models

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// OptionKind is the exercise side of a European option.
type OptionKind int

const (
	Call OptionKind = iota + 1
	Put
)

// ParseOptionKind maps "call" / "put" (any case) to an OptionKind.
func ParseOptionKind(s string) (OptionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOptionKind, s)
	}
}

func (k OptionKind) String() string {
	switch k {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionKind(%d)", int(k))
	}
}

// Valid reports whether k is Call or Put.
func (k OptionKind) Valid() bool {
	return k == Call || k == Put
}

// SimulationParameters carries the scalar inputs of a pricing run.
type SimulationParameters struct {
	InitialPrice float64
	Drift        float64
	Volatility   float64
	Horizon      float64 // years
	RiskFreeRate float64
	Strike       float64
	StepCount    int
	PathCount    int
	Kind         OptionKind
}

// Validate returns the first violated invariant.
func (p SimulationParameters) Validate() error {
	switch {
	case !positive(p.InitialPrice):
		return fmt.Errorf("%w: initial price must be > 0, got %g", ErrInvalidParameter, p.InitialPrice)
	case !positive(p.Strike):
		return fmt.Errorf("%w: strike must be > 0, got %g", ErrInvalidParameter, p.Strike)
	case !positive(p.Horizon):
		return fmt.Errorf("%w: horizon must be > 0, got %g", ErrInvalidParameter, p.Horizon)
	case math.IsNaN(p.Volatility) || math.IsInf(p.Volatility, 0) || p.Volatility < 0:
		return fmt.Errorf("%w: volatility must be >= 0, got %g", ErrInvalidParameter, p.Volatility)
	case math.IsNaN(p.RiskFreeRate) || math.IsInf(p.RiskFreeRate, 0):
		return fmt.Errorf("%w: risk-free rate must be finite, got %g", ErrInvalidParameter, p.RiskFreeRate)
	case p.StepCount < 1:
		return fmt.Errorf("%w: step count must be >= 1, got %d", ErrInvalidParameter, p.StepCount)
	case p.PathCount < 1:
		return fmt.Errorf("%w: path count must be >= 1, got %d", ErrInvalidParameter, p.PathCount)
	case !p.Kind.Valid():
		return fmt.Errorf("%w: %s", ErrInvalidOptionKind, p.Kind)
	}
	return nil
}

// PricePath is one simulated price trajectory. Prices[0] is the initial
// price; Times and Prices always have the same length.
type PricePath struct {
	Times  []float64
	Prices []float64
}

func (p PricePath) Len() int {
	return len(p.Prices)
}

// Terminal returns the last simulated price.
func (p PricePath) Terminal() float64 {
	if len(p.Prices) == 0 {
		return math.NaN()
	}
	return p.Prices[len(p.Prices)-1]
}

// BrownianPath is one d-dimensional Wiener path sampled on Times. Row i of
// Values is the position at Times[i]; row 0 is the origin.
type BrownianPath struct {
	Times  []float64
	Values *mat.Dense
}

func (b BrownianPath) Len() int {
	return len(b.Times)
}

func (b BrownianPath) Dimension() int {
	if b.Values == nil {
		return 0
	}
	_, c := b.Values.Dims()
	return c
}

// At returns a copy of the position vector at time index i.
func (b BrownianPath) At(i int) []float64 {
	return mat.Row(nil, i, b.Values)
}

// Axis returns a copy of the trajectory of coordinate j.
func (b BrownianPath) Axis(j int) []float64 {
	return mat.Col(nil, j, b.Values)
}

// OptionPriceEstimate is the result of a Monte Carlo pricing run.
type OptionPriceEstimate struct {
	Price          float64
	StandardError  float64
	PathCount      int
	DiscountFactor float64
}

// AggregateStatistics summarizes a flattened ensemble of values.
type AggregateStatistics struct {
	Count  int
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64
}

// BSMResult is the closed-form Black-Scholes-Merton price and its greeks.
type BSMResult struct {
	Price float64
	Delta float64
	Gamma float64
	Vega  float64
	Theta float64
	Rho   float64
	D1    float64
	D2    float64
}

// HistoricalEstimate holds the drift and volatility estimated from a series
// of closing prices.
type HistoricalEstimate struct {
	InitialPrice  float64
	MeanLogReturn float64
	Volatility    float64
	Observations  int
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}
