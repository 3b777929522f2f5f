package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSource_SameSeedSameSequence(t *testing.T) {
	t.Parallel()

	a, b := New(42), New(42)
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.StandardNormal(), b.StandardNormal(), "draw %d", i)
	}
}

func TestSource_DifferentSeedsDiverge(t *testing.T) {
	t.Parallel()

	a, b := New(1), New(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.StandardNormal() == b.StandardNormal() {
			same++
		}
	}
	require.Less(t, same, 100)
}

func TestSource_BatchMatchesSingleDraws(t *testing.T) {
	t.Parallel()

	a, b := New(7), New(7)
	batch := a.StandardNormalBatch(64)
	require.Len(t, batch, 64)
	for i, v := range batch {
		require.Equal(t, b.StandardNormal(), v, "draw %d", i)
	}
	require.Nil(t, a.StandardNormalBatch(0))
}

func TestSource_SplitIsReproducible(t *testing.T) {
	t.Parallel()

	c1 := New(99).Split(4)
	c2 := New(99).Split(4)
	require.Len(t, c1, 4)
	for i := range c1 {
		require.Equal(t, c1[i].Seed(), c2[i].Seed())
		require.Equal(t, c1[i].StandardNormal(), c2[i].StandardNormal())
	}
	require.NotEqual(t, c1[0].Seed(), c1[1].Seed())
}

func TestSource_MomentsLookStandard(t *testing.T) {
	t.Parallel()

	const n = 200000
	s := New(2024)
	var sum, sumSq float64
	for _, z := range s.StandardNormalBatch(n) {
		sum += z
		sumSq += z * z
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	// 5 standard errors of the sample mean / variance.
	require.InDelta(t, 0, mean, 5/math.Sqrt(n))
	require.InDelta(t, 1, variance, 5*math.Sqrt(2.0/n))
}

func TestNewRandom_SeedsDiffer(t *testing.T) {
	t.Parallel()

	require.NotEqual(t, NewRandom().Seed(), NewRandom().Seed())
}
