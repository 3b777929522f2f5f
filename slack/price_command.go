package slackbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/bcdannyboy/stochsim/models"
	"github.com/bcdannyboy/stochsim/simulation"
)

type PriceHandler struct {
	sim Simulator
}

func NewPriceHandler(sim Simulator) *PriceHandler {
	return &PriceHandler{sim: sim}
}

func (h *PriceHandler) HandleClosedForm(ctx context.Context, data slack.SlashCommand, client Poster) error {
	req, err := parseOptionArgs(data.Text, 0)
	if err != nil {
		return reply(client, data.ChannelID, usageError(err, "/bs <spot> <strike> <years> <rate> <vol> <call|put>"))
	}

	res, err := h.sim.PriceClosedForm(ctx, req)
	if err != nil {
		return reply(client, data.ChannelID, fmt.Sprintf("Pricing failed: %v", err))
	}
	return reply(client, data.ChannelID, formatClosedForm(req, *res))
}

func (h *PriceHandler) HandleMonteCarlo(ctx context.Context, data slack.SlashCommand, client Poster) error {
	req, err := parseOptionArgs(data.Text, 2)
	if err != nil {
		return reply(client, data.ChannelID, usageError(err, "/mcprice <spot> <strike> <years> <rate> <vol> <call|put> [paths] [steps]"))
	}

	res, err := h.sim.PriceOption(ctx, req)
	if err != nil {
		return reply(client, data.ChannelID, fmt.Sprintf("Pricing failed: %v", err))
	}
	return reply(client, data.ChannelID, formatMonteCarlo(*res))
}

func usageError(err error, usage string) string {
	return fmt.Sprintf("Invalid arguments: %v\nUsage: %s", err, usage)
}

func formatClosedForm(req simulation.OptionRequest, r models.BSMResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Black-Scholes %s S=%g K=%g T=%g r=%g vol=%g\n",
		req.Kind, req.Spot, req.Strike, req.Horizon, req.Rate, req.Volatility)
	fmt.Fprintf(&b, "Price: %.4f\n", r.Price)
	fmt.Fprintf(&b, "Delta: %.4f  Gamma: %.4f  Vega: %.4f\n", r.Delta, r.Gamma, r.Vega)
	fmt.Fprintf(&b, "Theta: %.4f  Rho: %.4f", r.Theta, r.Rho)
	return b.String()
}

func formatMonteCarlo(res simulation.OptionResult) string {
	var b strings.Builder
	p := res.Params
	fmt.Fprintf(&b, "Monte Carlo %s S=%g K=%g T=%g r=%g vol=%g (%d paths, %d steps, seed %d)\n",
		p.Kind, p.InitialPrice, p.Strike, p.Horizon, p.RiskFreeRate, p.Volatility, p.PathCount, p.StepCount, res.Seed)
	fmt.Fprintf(&b, "Price: %.4f ± %.4f", res.Estimate.Price, res.Estimate.StandardError)
	if res.Reference != nil {
		fmt.Fprintf(&b, "\nBlack-Scholes: %.4f (diff %.4f, %.2f SE)", res.Reference.Price, res.Difference, res.StdErrors)
	}
	return b.String()
}
