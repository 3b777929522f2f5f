package probability

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/stochsim/models"
)

func TestTailRisk(t *testing.T) {
	t.Parallel()

	terminals := make([]float64, 100)
	for i := range terminals {
		terminals[i] = float64(1 + i) // losses are 99, 98, ..., 0
	}

	res, err := TailRisk(100, terminals, 0.95)
	require.NoError(t, err)
	require.Equal(t, 0.95, res.Confidence)
	require.Equal(t, 94.0, res.ValueAtRisk)
	require.InDelta(t, 96.5, res.ExpectedShortfall, 1e-12)
	require.GreaterOrEqual(t, res.ExpectedShortfall, res.ValueAtRisk)
}

func TestTailRiskRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := TailRisk(100, nil, 0.95)
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	for _, c := range []float64{0, 1, -0.5, 1.5} {
		_, err := TailRisk(100, []float64{90, 110}, c)
		require.ErrorIs(t, err, models.ErrInvalidParameter)
	}
}
