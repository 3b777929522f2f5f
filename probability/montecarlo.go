package probability

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/bcdannyboy/stochsim/models"
	"github.com/bcdannyboy/stochsim/positions"
	"github.com/bcdannyboy/stochsim/rng"
)

const (
	DefaultSimulations = 1000
	DefaultTimeSteps   = 252 // trading days in a year
)

// MonteCarloPricer prices European options by averaging discounted payoffs
// over risk-neutral GBM paths.
type MonteCarloPricer struct {
	// Workers > 1 spreads the paths over that many goroutines.
	Workers int
	// KeepPaths returns the simulated ensemble alongside the estimate.
	KeepPaths bool
	// Progress is called once per finished path.
	Progress func()
}

// Price validates params and runs params.PathCount trials. The ensemble is
// nil unless KeepPaths is set; the draws consumed, and so the estimate, are
// the same either way.
func (p MonteCarloPricer) Price(params models.SimulationParameters, g rng.Generator) (models.OptionPriceEstimate, []models.PricePath, error) {
	if err := params.Validate(); err != nil {
		return models.OptionPriceEstimate{}, nil, err
	}

	process := models.NewRiskNeutralGBM(params)
	discount := math.Exp(-params.RiskFreeRate * params.Horizon)

	payoffs := make([]float64, params.PathCount)
	var paths []models.PricePath
	if p.KeepPaths {
		paths = make([]models.PricePath, params.PathCount)
	}

	opts := models.EnsembleOptions{Workers: p.Workers, Progress: p.Progress}
	err := models.ForEachPath(g, params.PathCount, opts, func(i int, g rng.Generator) error {
		var terminal float64
		if p.KeepPaths {
			paths[i] = process.Path(g)
			terminal = paths[i].Terminal()
		} else {
			terminal = process.Terminal(g)
		}

		payoff, err := positions.Payoff(params.Kind, terminal, params.Strike)
		if err != nil {
			return err
		}
		payoffs[i] = discount * payoff
		return nil
	})
	if err != nil {
		return models.OptionPriceEstimate{}, nil, err
	}

	est := models.OptionPriceEstimate{
		Price:          stat.Mean(payoffs, nil),
		PathCount:      params.PathCount,
		DiscountFactor: discount,
	}
	if len(payoffs) > 1 {
		est.StandardError = stat.StdDev(payoffs, nil) / math.Sqrt(float64(len(payoffs)))
	}
	if !finite(est.Price) || !finite(est.StandardError) {
		return models.OptionPriceEstimate{}, nil, fmt.Errorf("%w: estimate is not finite (rate %g, volatility %g, horizon %g)",
			models.ErrInvalidParameter, params.RiskFreeRate, params.Volatility, params.Horizon)
	}
	return est, paths, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
