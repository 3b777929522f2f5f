package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily variances.
const TradingDaysPerYear = 252

// Bar is one daily OHLC observation.
type Bar struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// RangeVolatility holds annualized volatility estimates that use the
// intraday range as well as the close.
type RangeVolatility struct {
	Days           int
	Parkinson      float64
	GarmanKlass    float64
	RogersSatchell float64
	YangZhang      float64
}

// RangeWindows are the trailing windows reported by TrailingRangeVolatility.
var RangeWindows = []struct {
	Name string
	Days int
}{
	{"1w", 5},
	{"1m", 21},
	{"3m", 63},
	{"6m", 126},
	{"1y", 252},
}

func validateBars(bars []Bar) error {
	if len(bars) < minCloses {
		return fmt.Errorf("%w: need at least %d bars, got %d", ErrInvalidParameter, minCloses, len(bars))
	}
	for i, b := range bars {
		if !positive(b.Open) || !positive(b.High) || !positive(b.Low) || !positive(b.Close) {
			return fmt.Errorf("%w: bar %d has a non-positive price", ErrInvalidParameter, i)
		}
		if b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
			return fmt.Errorf("%w: bar %d range does not contain open and close", ErrInvalidParameter, i)
		}
	}
	return nil
}

// EstimateRangeVolatility computes the Parkinson, Garman-Klass,
// Rogers-Satchell and Yang-Zhang estimators over every bar.
func EstimateRangeVolatility(bars []Bar) (RangeVolatility, error) {
	if err := validateBars(bars); err != nil {
		return RangeVolatility{}, err
	}

	n := float64(len(bars))
	var park, gk, rs float64
	overnight := make([]float64, 0, len(bars)-1)
	openClose := make([]float64, len(bars))

	for i, b := range bars {
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)

		park += hl * hl
		gk += 0.5*hl*hl - (2*math.Ln2-1)*co*co
		rs += math.Log(b.High/b.Close)*math.Log(b.High/b.Open) +
			math.Log(b.Low/b.Close)*math.Log(b.Low/b.Open)

		openClose[i] = co
		if i > 0 {
			overnight = append(overnight, math.Log(b.Open/bars[i-1].Close))
		}
	}

	park /= 4 * n * math.Ln2
	gk /= n
	rs /= n

	k := 0.34 / (1.34 + (n+1)/(n-1))
	yz := stat.Variance(overnight, nil) + k*stat.Variance(openClose, nil) + (1-k)*rs

	return RangeVolatility{
		Days:           len(bars),
		Parkinson:      annualize(park),
		GarmanKlass:    annualize(gk),
		RogersSatchell: annualize(rs),
		YangZhang:      annualize(yz),
	}, nil
}

// TrailingRangeVolatility estimates every RangeWindows entry the history is
// long enough for, plus "all" for the full history. Invalid input yields an
// empty map.
func TrailingRangeVolatility(bars []Bar) map[string]RangeVolatility {
	out := make(map[string]RangeVolatility)
	if validateBars(bars) != nil {
		return out
	}
	for _, w := range RangeWindows {
		if len(bars) < w.Days {
			break
		}
		if rv, err := EstimateRangeVolatility(bars[len(bars)-w.Days:]); err == nil {
			out[w.Name] = rv
		}
	}
	if rv, err := EstimateRangeVolatility(bars); err == nil {
		out["all"] = rv
	}
	return out
}

// Closes returns the closing price of every bar.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func annualize(dailyVariance float64) float64 {
	return math.Sqrt(math.Max(dailyVariance, 0) * TradingDaysPerYear)
}
