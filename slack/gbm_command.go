package slackbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/bcdannyboy/stochsim/simulation"
)

// GBMHandler runs historical simulations in the background and posts the
// result into the thread of its acknowledgement message.
type GBMHandler struct {
	sim     Simulator
	logger  *slog.Logger
	timeout time.Duration
}

func NewGBMHandler(sim Simulator, logger *slog.Logger) *GBMHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GBMHandler{sim: sim, logger: logger, timeout: 5 * time.Minute}
}

func (h *GBMHandler) HandleCommand(ctx context.Context, data slack.SlashCommand, client Poster) error {
	req, err := parseStockArgs(data.Text)
	if err != nil {
		return reply(client, data.ChannelID, usageError(err, "/gbm <symbol> [start YYYY-MM-DD] [end YYYY-MM-DD] [paths]"))
	}

	_, ts, err := client.PostMessage(data.ChannelID,
		slack.MsgOptionText(fmt.Sprintf("Simulating %s...", req.Symbol), false))
	if err != nil {
		return err
	}

	go h.run(ctx, client, data.ChannelID, ts, req)
	return nil
}

func (h *GBMHandler) run(ctx context.Context, client Poster, channelID, ts string, req simulation.StockRequest) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var text string
	res, err := h.sim.SimulateStock(ctx, req)
	if err != nil {
		text = fmt.Sprintf("Simulation of %s failed: %v", req.Symbol, err)
	} else {
		text = formatStock(*res)
	}

	if err := reply(client, channelID, text, slack.MsgOptionTS(ts)); err != nil {
		h.logger.Warn("failed to post simulation result", "symbol", req.Symbol, "error", err)
	}
}

func formatStock(res simulation.StockResult) string {
	var b strings.Builder
	est := res.Estimate
	fmt.Fprintf(&b, "%s: %d paths x %d days (seed %d)\n", res.Symbol, res.PathCount, res.StepCount, res.Seed)
	fmt.Fprintf(&b, "Initial price: %.2f  Daily volatility: %.4f\n", est.InitialPrice, est.Volatility)
	fmt.Fprintf(&b, "Mean final price: %.2f\n", res.FinalPrices.Mean)
	fmt.Fprintf(&b, "Min / max simulated price: %.2f / %.2f\n", res.PathPrices.Min, res.PathPrices.Max)
	fmt.Fprintf(&b, "95%% VaR: %.2f  Expected shortfall: %.2f", res.TailRisk.ValueAtRisk, res.TailRisk.ExpectedShortfall)
	if rv, ok := res.RangeVolatility["1m"]; ok {
		fmt.Fprintf(&b, "\n1m annualized vol: Parkinson %.4f  Garman-Klass %.4f  Yang-Zhang %.4f",
			rv.Parkinson, rv.GarmanKlass, rv.YangZhang)
	}
	if res.GARCH != nil {
		fmt.Fprintf(&b, "\nGARCH(1,1) forecast vol: %.4f (alpha %.3f, beta %.3f)",
			res.GARCH.Volatility, res.GARCH.Params.Alpha, res.GARCH.Params.Beta)
	}
	return b.String()
}
