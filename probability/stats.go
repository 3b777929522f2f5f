package probability

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/bcdannyboy/stochsim/models"
)

// Summarize reports count, mean, min, max and sample standard deviation over
// every value of every path in ensemble.
func Summarize(ensemble [][]float64) (models.AggregateStatistics, error) {
	var n int
	for _, path := range ensemble {
		n += len(path)
	}
	if n == 0 {
		return models.AggregateStatistics{}, fmt.Errorf("%w: empty ensemble", models.ErrInvalidParameter)
	}

	res := models.AggregateStatistics{
		Count: n,
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}

	var sum float64
	for _, path := range ensemble {
		if len(path) == 0 {
			continue
		}
		sum += floats.Sum(path)
		res.Min = math.Min(res.Min, floats.Min(path))
		res.Max = math.Max(res.Max, floats.Max(path))
	}
	res.Mean = sum / float64(n)

	if n > 1 {
		var ss float64
		for _, path := range ensemble {
			for _, v := range path {
				d := v - res.Mean
				ss += d * d
			}
		}
		res.StdDev = math.Sqrt(ss / float64(n-1))
	}
	return res, nil
}

// TerminalValues returns one single-value row per path holding its final
// price.
func TerminalValues(paths []models.PricePath) [][]float64 {
	out := make([][]float64, 0, len(paths))
	for _, p := range paths {
		if p.Len() == 0 {
			continue
		}
		out = append(out, []float64{p.Terminal()})
	}
	return out
}

// AllValues exposes every simulated price of every path.
func AllValues(paths []models.PricePath) [][]float64 {
	out := make([][]float64, len(paths))
	for i, p := range paths {
		out[i] = p.Prices
	}
	return out
}

// BrownianTerminalValues collects the final position along axis of every
// path. Paths without that axis are skipped.
func BrownianTerminalValues(paths []models.BrownianPath, axis int) [][]float64 {
	out := make([][]float64, 0, len(paths))
	for _, p := range paths {
		if p.Len() == 0 || axis < 0 || axis >= p.Dimension() {
			continue
		}
		out = append(out, []float64{p.Values.At(p.Len()-1, axis)})
	}
	return out
}
