package slackbot

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

type SlackBot struct {
	socketClient *socketmode.Client
	eventHandler *Handler
	logger       *slog.Logger
}

func NewSlackBot(appToken, botToken string, sim Simulator, logger *slog.Logger) *SlackBot {
	if logger == nil {
		logger = slog.Default()
	}

	client := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
	)

	socketClient := socketmode.New(
		client,
		socketmode.OptionDebug(logger.Enabled(context.Background(), slog.LevelDebug)),
		socketmode.OptionLog(slog.NewLogLogger(logger.With("component", "socketmode").Handler(), slog.LevelDebug)),
	)

	return &SlackBot{
		socketClient: socketClient,
		eventHandler: NewHandler(sim, logger),
		logger:       logger,
	}
}

// Start dispatches slash commands until ctx is cancelled or the socket
// connection fails. The event loop has stopped by the time Start returns.
func (sb *SlackBot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sb.serve(ctx, sb.socketClient.Events)
	}()

	err := sb.socketClient.RunContext(ctx)
	cancel()
	<-done
	return err
}

// serve handles events until ctx is done or events is closed.
func (sb *SlackBot) serve(ctx context.Context, events <-chan socketmode.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			sb.handleEvent(ctx, evt)
		}
	}
}

func (sb *SlackBot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnected:
		sb.logger.Info("slack socket connected")
	case socketmode.EventTypeSlashCommand:
		data, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		if evt.Request != nil {
			sb.socketClient.Ack(*evt.Request)
		}
		if err := sb.eventHandler.Handle(ctx, data, sb.socketClient); err != nil {
			sb.logger.Warn("slash command failed", "command", data.Command, "error", err)
		}
	}
}
