package positions

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/stochsim/models"
)

// Payoff is the intrinsic value of a European option at expiry.
func Payoff(kind models.OptionKind, spot, strike float64) (float64, error) {
	switch kind {
	case models.Call:
		return math.Max(0, spot-strike), nil
	case models.Put:
		return math.Max(0, strike-spot), nil
	default:
		return 0, fmt.Errorf("%w: %s", models.ErrInvalidOptionKind, kind)
	}
}

func sanitizeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func finitePositive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}
