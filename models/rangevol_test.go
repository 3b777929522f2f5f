package models_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/stochsim/models"
)

// flatBars returns n bars that open and close at 100 with a symmetric
// log range of 0.02 and no overnight gaps.
func flatBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{Open: 100, High: 100 * math.Exp(0.01), Low: 100 * math.Exp(-0.01), Close: 100}
	}
	return bars
}

func TestEstimateRangeVolatility(t *testing.T) {
	t.Parallel()

	rv, err := models.EstimateRangeVolatility(flatBars(10))
	require.NoError(t, err)

	require.Equal(t, 10, rv.Days)
	require.InDelta(t, math.Sqrt(0.0004/(4*math.Ln2)*252), rv.Parkinson, 1e-9)
	require.InDelta(t, math.Sqrt(0.0002*252), rv.GarmanKlass, 1e-9)
	require.InDelta(t, math.Sqrt(0.0002*252), rv.RogersSatchell, 1e-9)

	k := 0.34 / (1.34 + 11.0/9.0)
	require.InDelta(t, math.Sqrt((1-k)*0.0002*252), rv.YangZhang, 1e-9)
}

func TestEstimateRangeVolatilityFlatMarket(t *testing.T) {
	t.Parallel()

	bars := []models.Bar{{50, 50, 50, 50}, {50, 50, 50, 50}, {50, 50, 50, 50}}
	rv, err := models.EstimateRangeVolatility(bars)
	require.NoError(t, err)
	require.Zero(t, rv.Parkinson)
	require.Zero(t, rv.GarmanKlass)
	require.Zero(t, rv.RogersSatchell)
	require.Zero(t, rv.YangZhang)
}

func TestEstimateRangeVolatilityRejectsBadBars(t *testing.T) {
	t.Parallel()

	_, err := models.EstimateRangeVolatility(flatBars(2))
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	bad := flatBars(5)
	bad[3].High = 99
	_, err = models.EstimateRangeVolatility(bad)
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	bad = flatBars(5)
	bad[1].Low = 0
	_, err = models.EstimateRangeVolatility(bad)
	require.ErrorIs(t, err, models.ErrInvalidParameter)
}

func TestTrailingRangeVolatility(t *testing.T) {
	t.Parallel()

	out := models.TrailingRangeVolatility(flatBars(30))
	require.Len(t, out, 3)
	require.Equal(t, 5, out["1w"].Days)
	require.Equal(t, 21, out["1m"].Days)
	require.Equal(t, 30, out["all"].Days)
	require.NotContains(t, out, "3m")

	require.Empty(t, models.TrailingRangeVolatility(nil))
}

func TestCloses(t *testing.T) {
	t.Parallel()

	bars := flatBars(3)
	bars[2].Close = 100.5
	require.Equal(t, []float64{100, 100, 100.5}, models.Closes(bars))
}
