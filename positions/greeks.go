package positions

import (
	"github.com/bcdannyboy/stochsim/models"
)

// ShadowGamma measures how delta moves when spot and volatility move
// together: spot shifts by priceChange (relative) and volatility by
// volChange (relative) in the same direction.
func ShadowGamma(S, K, T, r, sigma float64, kind models.OptionKind, priceChange, volChange float64) (up, down float64, err error) {
	base, err := Calculate(S, K, T, r, sigma, kind)
	if err != nil {
		return 0, 0, err
	}

	upS := S * (1 + priceChange)
	upRes, err := Calculate(upS, K, T, r, sigma*(1+volChange), kind)
	if err != nil {
		return 0, 0, err
	}

	downS := S * (1 - priceChange)
	downRes, err := Calculate(downS, K, T, r, sigma*(1-volChange), kind)
	if err != nil {
		return 0, 0, err
	}

	up = sanitizeFloat((upRes.Delta - base.Delta) / (upS - S))
	down = sanitizeFloat((base.Delta - downRes.Delta) / (S - downS))
	return up, down, nil
}

// SkewGamma is the central-difference derivative of vega with respect to
// volatility (vomma).
func SkewGamma(S, K, T, r, sigma float64, kind models.OptionKind, volStep float64) (float64, error) {
	upRes, err := Calculate(S, K, T, r, sigma+volStep, kind)
	if err != nil {
		return 0, err
	}
	downRes, err := Calculate(S, K, T, r, sigma-volStep, kind)
	if err != nil {
		return 0, err
	}
	return sanitizeFloat((upRes.Vega - downRes.Vega) / (2 * volStep)), nil
}
