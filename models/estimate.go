package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// minCloses is the shortest series with a defined sample standard deviation
// of its log returns.
const minCloses = 3

// EstimateFromCloses fits drift and volatility to a chronologically ordered
// series of closing prices. Log returns are ln(1 + pct_change); the
// volatility is the sample standard deviation (n-1 denominator).
func EstimateFromCloses(closes []float64) (HistoricalEstimate, error) {
	if len(closes) < minCloses {
		return HistoricalEstimate{}, fmt.Errorf("%w: need at least %d closing prices, got %d", ErrInvalidParameter, minCloses, len(closes))
	}
	for i, c := range closes {
		if !positive(c) {
			return HistoricalEstimate{}, fmt.Errorf("%w: close %d must be > 0, got %g", ErrInvalidParameter, i, c)
		}
	}

	returns := LogReturns(closes)
	mean, std := stat.MeanStdDev(returns, nil)

	return HistoricalEstimate{
		InitialPrice:  closes[len(closes)-1],
		MeanLogReturn: mean,
		Volatility:    std,
		Observations:  len(closes),
	}, nil
}

// LogReturns computes ln(1 + (P_t - P_{t-1}) / P_{t-1}) for t = 1..n-1.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		pct := (closes[i] - closes[i-1]) / closes[i-1]
		returns[i-1] = math.Log1p(pct)
	}
	return returns
}
