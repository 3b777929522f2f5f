package slackbot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bcdannyboy/stochsim/models"
	"github.com/bcdannyboy/stochsim/simulation"
)

// parseOptionArgs reads "spot strike years rate vol kind [paths] [steps]".
// extra is the number of optional integer arguments accepted after kind.
func parseOptionArgs(text string, extra int) (simulation.OptionRequest, error) {
	args := strings.Fields(text)
	if len(args) < 6 || len(args) > 6+extra {
		return simulation.OptionRequest{}, fmt.Errorf("%w: expected %d to %d arguments, got %d",
			models.ErrInvalidParameter, 6, 6+extra, len(args))
	}

	names := []string{"spot", "strike", "years", "rate", "vol"}
	vals := make([]float64, len(names))
	for i, name := range names {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return simulation.OptionRequest{}, fmt.Errorf("%w: %s must be a number, got %q", models.ErrInvalidParameter, name, args[i])
		}
		vals[i] = v
	}

	kind, err := models.ParseOptionKind(args[5])
	if err != nil {
		return simulation.OptionRequest{}, err
	}

	req := simulation.OptionRequest{
		Spot:       vals[0],
		Strike:     vals[1],
		Horizon:    vals[2],
		Rate:       vals[3],
		Volatility: vals[4],
		Kind:       kind,
	}

	counts := []*int{&req.PathCount, &req.StepCount}
	for i, a := range args[6:] {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return simulation.OptionRequest{}, fmt.Errorf("%w: expected a positive integer, got %q", models.ErrInvalidParameter, a)
		}
		*counts[i] = n
	}
	return req, nil
}

// parseStockArgs reads "SYMBOL [start] [end] [paths]".
func parseStockArgs(text string) (simulation.StockRequest, error) {
	args := strings.Fields(text)
	if len(args) < 1 || len(args) > 4 {
		return simulation.StockRequest{}, fmt.Errorf("%w: expected 1 to 4 arguments, got %d", models.ErrInvalidParameter, len(args))
	}

	req := simulation.StockRequest{Symbol: strings.ToUpper(args[0])}
	dates := []*time.Time{&req.Start, &req.End}
	for i, a := range args[1:] {
		if i < len(dates) {
			if t, err := time.Parse(time.DateOnly, a); err == nil {
				*dates[i] = t
				continue
			}
		}
		if i != len(args)-2 {
			return simulation.StockRequest{}, fmt.Errorf("%w: expected a YYYY-MM-DD date, got %q", models.ErrInvalidParameter, a)
		}
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return simulation.StockRequest{}, fmt.Errorf("%w: expected a date or a positive path count, got %q", models.ErrInvalidParameter, a)
		}
		req.PathCount = n
	}
	return req, nil
}
