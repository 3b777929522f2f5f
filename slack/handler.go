// Package slackbot answers pricing and simulation slash commands over a
// Slack socket-mode connection.
package slackbot

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/bcdannyboy/stochsim/models"
	"github.com/bcdannyboy/stochsim/simulation"
)

// Simulator is the part of simulation.Service the bot needs.
type Simulator interface {
	SimulateStock(ctx context.Context, req simulation.StockRequest) (*simulation.StockResult, error)
	PriceOption(ctx context.Context, req simulation.OptionRequest) (*simulation.OptionResult, error)
	PriceClosedForm(ctx context.Context, req simulation.OptionRequest) (*models.BSMResult, error)
}

// Poster sends messages to a channel. *socketmode.Client satisfies it.
type Poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

type Handler struct {
	helpHandler  *HelpHandler
	priceHandler *PriceHandler
	gbmHandler   *GBMHandler
}

func NewHandler(sim Simulator, logger *slog.Logger) *Handler {
	return &Handler{
		helpHandler:  NewHelpHandler(),
		priceHandler: NewPriceHandler(sim),
		gbmHandler:   NewGBMHandler(sim, logger),
	}
}

func (h *Handler) Handle(ctx context.Context, data slack.SlashCommand, client Poster) error {
	switch data.Command {
	case "/help":
		return h.helpHandler.HandleCommand(data, client)
	case "/bs":
		return h.priceHandler.HandleClosedForm(ctx, data, client)
	case "/mcprice":
		return h.priceHandler.HandleMonteCarlo(ctx, data, client)
	case "/gbm":
		return h.gbmHandler.HandleCommand(ctx, data, client)
	}
	return nil
}

func reply(client Poster, channelID, text string, opts ...slack.MsgOption) error {
	opts = append([]slack.MsgOption{slack.MsgOptionText(text, false)}, opts...)
	_, _, err := client.PostMessage(channelID, opts...)
	return err
}
