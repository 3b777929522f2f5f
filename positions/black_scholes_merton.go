package positions

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/bcdannyboy/stochsim/models"
)

// Price returns the Black-Scholes-Merton value of a European option.
func Price(S, K, T, r, sigma float64, kind models.OptionKind) (float64, error) {
	if err := validateInputs(S, K, T, r, sigma, kind); err != nil {
		return 0, err
	}
	d1, d2 := calculateD1D2(S, K, T, r, sigma)
	return calculateOptionPrice(S, K, T, r, d1, d2, kind), nil
}

// Calculate returns the price together with delta, gamma, vega, theta (per
// year) and rho.
func Calculate(S, K, T, r, sigma float64, kind models.OptionKind) (models.BSMResult, error) {
	if err := validateInputs(S, K, T, r, sigma, kind); err != nil {
		return models.BSMResult{}, err
	}
	return calculateBSM(S, K, T, r, sigma, kind), nil
}

func validateInputs(S, K, T, r, sigma float64, kind models.OptionKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %s", models.ErrInvalidOptionKind, kind)
	}
	switch {
	case !finitePositive(S):
		return fmt.Errorf("%w: spot must be > 0, got %g", models.ErrInvalidParameter, S)
	case !finitePositive(K):
		return fmt.Errorf("%w: strike must be > 0, got %g", models.ErrInvalidParameter, K)
	case !finitePositive(T):
		return fmt.Errorf("%w: time to maturity must be > 0, got %g", models.ErrInvalidParameter, T)
	case !finitePositive(sigma):
		return fmt.Errorf("%w: volatility must be > 0, got %g", models.ErrInvalidParameter, sigma)
	case math.IsNaN(r) || math.IsInf(r, 0):
		return fmt.Errorf("%w: rate must be finite, got %g", models.ErrInvalidParameter, r)
	}
	return nil
}

func calculateD1D2(S, K, T, r, sigma float64) (float64, float64) {
	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}

func calculateOptionPrice(S, K, T, r, d1, d2 float64, kind models.OptionKind) float64 {
	discount := math.Exp(-r * T)
	if kind == models.Call {
		return S*normCDF(d1) - K*discount*normCDF(d2)
	}
	return K*discount*normCDF(-d2) - S*normCDF(-d1)
}

func calculateBSM(S, K, T, r, sigma float64, kind models.OptionKind) models.BSMResult {
	d1, d2 := calculateD1D2(S, K, T, r, sigma)
	sqrtT := math.Sqrt(T)
	discount := math.Exp(-r * T)

	gamma := normPDF(d1) / (S * sigma * sqrtT)
	vega := S * normPDF(d1) * sqrtT
	decay := -(S * normPDF(d1) * sigma) / (2 * sqrtT)

	var delta, theta, rho float64
	switch kind {
	case models.Call:
		delta = normCDF(d1)
		theta = decay - r*K*discount*normCDF(d2)
		rho = K * T * discount * normCDF(d2)
	case models.Put:
		delta = normCDF(d1) - 1
		theta = decay + r*K*discount*normCDF(-d2)
		rho = -K * T * discount * normCDF(-d2)
	}

	return models.BSMResult{
		Price: calculateOptionPrice(S, K, T, r, d1, d2, kind),
		Delta: delta,
		Gamma: gamma,
		Vega:  vega,
		Theta: theta,
		Rho:   rho,
		D1:    d1,
		D2:    d2,
	}
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
