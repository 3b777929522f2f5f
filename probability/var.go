package probability

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/bcdannyboy/stochsim/models"
)

// TailRiskResult holds loss statistics of a terminal price distribution
// relative to the starting price.
type TailRiskResult struct {
	Confidence        float64
	ValueAtRisk       float64
	ExpectedShortfall float64
}

// TailRisk computes value at risk and expected shortfall of the losses
// initial - terminal at the given confidence level (e.g. 0.95).
func TailRisk(initial float64, terminals []float64, confidence float64) (TailRiskResult, error) {
	if len(terminals) == 0 {
		return TailRiskResult{}, fmt.Errorf("%w: no terminal prices", models.ErrInvalidParameter)
	}
	if !(confidence > 0 && confidence < 1) {
		return TailRiskResult{}, fmt.Errorf("%w: confidence must be in (0, 1), got %g", models.ErrInvalidParameter, confidence)
	}

	losses := make([]float64, len(terminals))
	for i, finalPrice := range terminals {
		losses[i] = initial - finalPrice
	}
	sort.Float64s(losses)

	valueAtRisk := stat.Quantile(confidence, stat.Empirical, losses, nil)

	var tail []float64
	for _, l := range losses {
		if l >= valueAtRisk {
			tail = append(tail, l)
		}
	}

	return TailRiskResult{
		Confidence:        confidence,
		ValueAtRisk:       valueAtRisk,
		ExpectedShortfall: stat.Mean(tail, nil),
	}, nil
}
