package models_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/stochsim/models"
	"github.com/bcdannyboy/stochsim/rng"
)

func simulateGARCH(g models.GARCH11, n int, seed uint64) []float64 {
	src := rng.New(seed)
	variance := g.UnconditionalVariance()
	returns := make([]float64, n)
	for i := range returns {
		returns[i] = math.Sqrt(variance) * src.StandardNormal()
		variance = g.Omega + g.Alpha*returns[i]*returns[i] + g.Beta*variance
	}
	return returns
}

func TestGARCHConditionalVolatility(t *testing.T) {
	t.Parallel()

	g := models.GARCH11{Omega: 1e-5, Alpha: 0.1, Beta: 0.8}
	require.InDelta(t, 1e-4, g.UnconditionalVariance(), 1e-15)

	// 1e-4 -> 1e-4 after r = 0.01 -> 1.3e-4 after r = -0.02
	require.InDelta(t, math.Sqrt(1.3e-4*252), g.ConditionalVolatility([]float64{0.01, -0.02}), 1e-12)
}

func TestGARCHLogLikelihoodRejectsNonStationary(t *testing.T) {
	t.Parallel()

	returns := []float64{0.01, -0.01, 0.02}
	require.True(t, math.IsInf(models.GARCH11{Omega: 1e-5, Alpha: 0.5, Beta: 0.6}.LogLikelihood(returns), -1))
	require.True(t, math.IsInf(models.GARCH11{Omega: 0, Alpha: 0.1, Beta: 0.8}.LogLikelihood(returns), -1))
	require.False(t, math.IsInf(models.GARCH11{Omega: 1e-5, Alpha: 0.1, Beta: 0.8}.LogLikelihood(returns), 0))
}

func TestFitGARCH11(t *testing.T) {
	t.Parallel()

	truth := models.GARCH11{Omega: 2e-6, Alpha: 0.08, Beta: 0.9}
	returns := simulateGARCH(truth, 3000, 11)

	est, err := models.FitGARCH11(returns)
	require.NoError(t, err)

	p := est.Params
	require.Greater(t, p.Omega, 0.0)
	require.GreaterOrEqual(t, p.Alpha, 0.0)
	require.GreaterOrEqual(t, p.Beta, 0.0)
	require.Less(t, p.Alpha+p.Beta, 1.0)
	require.Greater(t, p.Alpha+p.Beta, 0.8)
	require.Greater(t, est.Volatility, 0.0)
	require.False(t, math.IsNaN(est.LogLikelihood))
}

func TestFitGARCH11RejectsShortOrFlatSeries(t *testing.T) {
	t.Parallel()

	_, err := models.FitGARCH11(make([]float64, models.MinGARCHReturns-1))
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	_, err = models.FitGARCH11(make([]float64, models.MinGARCHReturns))
	require.ErrorIs(t, err, models.ErrInvalidParameter)
}
