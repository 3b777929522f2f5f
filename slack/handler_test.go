package slackbot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/stochsim/logging"
	"github.com/bcdannyboy/stochsim/models"
	"github.com/bcdannyboy/stochsim/simulation"
)

type message struct {
	channel  string
	text     string
	threadTS string
}

type recorder struct {
	mu   sync.Mutex
	msgs []message
	sent chan struct{}
}

func newRecorder() *recorder {
	return &recorder{sent: make(chan struct{}, 16)}
}

func (r *recorder) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("token", channelID, "https://slack.test/api/", options...)
	if err != nil {
		return "", "", err
	}

	r.mu.Lock()
	r.msgs = append(r.msgs, message{channel: channelID, text: values.Get("text"), threadTS: values.Get("thread_ts")})
	r.mu.Unlock()
	r.sent <- struct{}{}
	return channelID, "1700000000.000100", nil
}

func (r *recorder) wait(t *testing.T, n int) []message {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.sent:
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for message %d", i+1)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]message(nil), r.msgs...)
}

type stubHistory struct {
	closes []float64
	err    error
}

func (s stubHistory) ClosingPrices(context.Context, string, time.Time, time.Time) ([]float64, error) {
	return s.closes, s.err
}

func newTestHandler(h simulation.HistorySource) *Handler {
	svc := simulation.NewService(h, logging.Discard(), simulation.Options{DefaultPaths: 100, DefaultSteps: 5})
	return NewHandler(svc, logging.Discard())
}

func TestHelpCommand(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	err := newTestHandler(nil).Handle(context.Background(), slack.SlashCommand{Command: "/help", ChannelID: "C1"}, rec)
	require.NoError(t, err)

	msgs := rec.wait(t, 1)
	require.Equal(t, "C1", msgs[0].channel)
	require.Contains(t, msgs[0].text, "/mcprice")
}

func TestClosedFormCommand(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	err := newTestHandler(nil).Handle(context.Background(),
		slack.SlashCommand{Command: "/bs", ChannelID: "C1", Text: "100 100 1 0.05 0.2 call"}, rec)
	require.NoError(t, err)

	msgs := rec.wait(t, 1)
	require.Contains(t, msgs[0].text, "Price: 10.4506")
}

func TestMonteCarloCommand(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	err := newTestHandler(nil).Handle(context.Background(),
		slack.SlashCommand{Command: "/mcprice", ChannelID: "C1", Text: "100 100 1 0.05 0.2 put 500 4"}, rec)
	require.NoError(t, err)

	msgs := rec.wait(t, 1)
	require.Contains(t, msgs[0].text, "500 paths, 4 steps")
	require.Contains(t, msgs[0].text, "Black-Scholes: 5.5735")
}

func TestBadArgumentsReplyWithUsage(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	h := newTestHandler(nil)
	require.NoError(t, h.Handle(context.Background(),
		slack.SlashCommand{Command: "/bs", ChannelID: "C1", Text: "100 100 1 0.05 0.2 straddle"}, rec))
	require.NoError(t, h.Handle(context.Background(),
		slack.SlashCommand{Command: "/bs", ChannelID: "C1", Text: "100 100 1 0.05 0 call"}, rec))

	msgs := rec.wait(t, 2)
	require.Contains(t, msgs[0].text, "Usage: /bs")
	require.Contains(t, msgs[1].text, "Pricing failed")
}

func TestGBMCommandPostsIntoThread(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	h := newTestHandler(stubHistory{closes: []float64{100, 101, 102, 101.5, 103}})
	require.NoError(t, h.Handle(context.Background(),
		slack.SlashCommand{Command: "/gbm", ChannelID: "C9", Text: "msft 2024-01-01 2024-03-01 20"}, rec))

	msgs := rec.wait(t, 2)
	require.Equal(t, "Simulating MSFT...", msgs[0].text)
	require.Equal(t, "1700000000.000100", msgs[1].threadTS)
	require.Contains(t, msgs[1].text, "MSFT: 20 paths x 5 days")
	require.Contains(t, msgs[1].text, "Mean final price")
}

func TestGBMCommandReportsFailure(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	h := newTestHandler(stubHistory{err: errors.New("no data")})
	require.NoError(t, h.Handle(context.Background(),
		slack.SlashCommand{Command: "/gbm", ChannelID: "C9", Text: "XYZ"}, rec))

	msgs := rec.wait(t, 2)
	require.Contains(t, msgs[1].text, "Simulation of XYZ failed")
}

func TestParseOptionArgs(t *testing.T) {
	t.Parallel()

	req, err := parseOptionArgs("100 95 0.5 0.01 0.3 PUT 1000 50", 2)
	require.NoError(t, err)
	require.Equal(t, simulation.OptionRequest{
		Spot: 100, Strike: 95, Horizon: 0.5, Rate: 0.01, Volatility: 0.3,
		Kind: models.Put, PathCount: 1000, StepCount: 50,
	}, req)

	for _, text := range []string{
		"",
		"100 95 0.5 0.01 0.3",
		"100 95 0.5 0.01 0.3 call 10",
		"abc 95 0.5 0.01 0.3 call",
	} {
		_, err := parseOptionArgs(text, 0)
		require.ErrorIs(t, err, models.ErrInvalidParameter, text)
	}

	_, err = parseOptionArgs("100 95 0.5 0.01 0.3 call 0", 2)
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	_, err = parseOptionArgs("100 95 0.5 0.01 0.3 straddle", 0)
	require.ErrorIs(t, err, models.ErrInvalidOptionKind)
}

func TestParseStockArgs(t *testing.T) {
	t.Parallel()

	req, err := parseStockArgs("aapl")
	require.NoError(t, err)
	require.Equal(t, simulation.StockRequest{Symbol: "AAPL"}, req)

	req, err = parseStockArgs("aapl 250")
	require.NoError(t, err)
	require.Equal(t, 250, req.PathCount)

	req, err = parseStockArgs("aapl 2022-01-01 300")
	require.NoError(t, err)
	require.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), req.Start)
	require.True(t, req.End.IsZero())
	require.Equal(t, 300, req.PathCount)

	req, err = parseStockArgs("aapl 2022-01-01 2023-01-01 5")
	require.NoError(t, err)
	require.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), req.End)
	require.Equal(t, 5, req.PathCount)

	for _, text := range []string{"", "a b c d e", "aapl soon 5", "aapl 2022-01-01 2023-01-01 2024-01-01", "aapl -3"} {
		_, err := parseStockArgs(text)
		require.ErrorIs(t, err, models.ErrInvalidParameter, text)
	}
}
