package slackbot

import (
	"github.com/slack-go/slack"
)

const helpText = "Available commands:\n" +
	"/help - Show this help message\n" +
	"/bs <spot> <strike> <years> <rate> <vol> <call|put> - Black-Scholes price and greeks\n" +
	"/mcprice <spot> <strike> <years> <rate> <vol> <call|put> [paths] [steps] - Monte Carlo price\n" +
	"/gbm <symbol> [start YYYY-MM-DD] [end YYYY-MM-DD] [paths] - Simulate future prices from history"

type HelpHandler struct{}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

func (h *HelpHandler) HandleCommand(data slack.SlashCommand, client Poster) error {
	return reply(client, data.ChannelID, helpText)
}
