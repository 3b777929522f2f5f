package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// MinGARCHReturns is the shortest return series FitGARCH11 accepts.
const MinGARCHReturns = 30

// GARCH11 is a GARCH(1,1) variance process:
// var[t] = Omega + Alpha*r[t-1]^2 + Beta*var[t-1].
type GARCH11 struct {
	Omega float64
	Alpha float64
	Beta  float64
}

// GARCHEstimate is a fitted GARCH(1,1) model and its one-step-ahead
// volatility forecast, annualized.
type GARCHEstimate struct {
	Params        GARCH11
	LogLikelihood float64
	Volatility    float64
}

func (g GARCH11) stationary() bool {
	return g.Omega > 0 && g.Alpha >= 0 && g.Beta >= 0 && g.Alpha+g.Beta < 1
}

// UnconditionalVariance is the long-run daily variance.
func (g GARCH11) UnconditionalVariance() float64 {
	return g.Omega / (1 - g.Alpha - g.Beta)
}

// filter runs the variance recursion over returns starting from the
// unconditional variance. It returns the Gaussian log-likelihood and the
// variance forecast for the step after the last return.
func (g GARCH11) filter(returns []float64) (logLik, next float64) {
	variance := g.UnconditionalVariance()
	for _, r := range returns {
		logLik -= 0.5 * (math.Log(2*math.Pi) + math.Log(variance) + r*r/variance)
		variance = g.Omega + g.Alpha*r*r + g.Beta*variance
	}
	return logLik, variance
}

// LogLikelihood of returns under g. Non-stationary parameters score -Inf.
func (g GARCH11) LogLikelihood(returns []float64) float64 {
	if !g.stationary() {
		return math.Inf(-1)
	}
	ll, _ := g.filter(returns)
	return ll
}

// ConditionalVolatility is the annualized volatility forecast for the day
// after returns.
func (g GARCH11) ConditionalVolatility(returns []float64) float64 {
	_, next := g.filter(returns)
	return math.Sqrt(next * TradingDaysPerYear)
}

// garchParams maps an unconstrained point onto a stationary model.
func garchParams(x []float64) GARCH11 {
	persistence := sigmoid(x[1])
	share := sigmoid(x[2])
	return GARCH11{
		Omega: math.Exp(x[0]),
		Alpha: persistence * share,
		Beta:  persistence * (1 - share),
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

// FitGARCH11 fits a GARCH(1,1) model to demeaned returns by maximum
// likelihood with Nelder-Mead.
func FitGARCH11(returns []float64) (GARCHEstimate, error) {
	if len(returns) < MinGARCHReturns {
		return GARCHEstimate{}, fmt.Errorf("%w: need at least %d returns for GARCH, got %d",
			ErrInvalidParameter, MinGARCHReturns, len(returns))
	}

	mean, variance := stat.MeanVariance(returns, nil)
	if !(variance > 0) || math.IsInf(variance, 0) {
		return GARCHEstimate{}, fmt.Errorf("%w: returns have no variance", ErrInvalidParameter)
	}
	demeaned := make([]float64, len(returns))
	for i, r := range returns {
		demeaned[i] = r - mean
	}

	// Start at persistence 0.9 with a 1:8 alpha:beta split, matching the
	// sample variance.
	x0 := []float64{math.Log(0.1 * variance), logit(0.9), logit(1.0 / 9)}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			ll, _ := garchParams(x).filter(demeaned)
			if math.IsNaN(ll) || math.IsInf(ll, 0) {
				return math.MaxFloat64
			}
			return -ll
		},
	}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return GARCHEstimate{}, fmt.Errorf("fit garch: %w", err)
	}

	params := garchParams(result.X)
	return GARCHEstimate{
		Params:        params,
		LogLikelihood: -result.F,
		Volatility:    params.ConditionalVolatility(demeaned),
	}, nil
}
