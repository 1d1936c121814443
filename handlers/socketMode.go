package handlers

import (
	"context"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

// SocketModeListener receives events over a Socket Mode websocket instead of
// the HTTP endpoint.
type SocketModeListener struct {
	client *socketmode.Client
	pool   *EventPool
	logger *zap.Logger
}

// NewSocketModeListener expects api to carry the app-level token.
func NewSocketModeListener(api *slack.Client, pool *EventPool, logger *zap.Logger) *SocketModeListener {
	return &SocketModeListener{
		client: socketmode.New(api),
		pool:   pool,
		logger: logger.Named("socket-mode"),
	}
}

// Run blocks until ctx is cancelled or the connection fails for good. It
// returns only after the event consumer has exited, so the pool can be
// stopped right after.
func (l *SocketModeListener) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		l.consume(ctx)
	}()

	err := l.client.RunContext(ctx)
	cancel()
	<-consumed
	return err
}

func (l *SocketModeListener) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-l.client.Events:
			if !ok {
				return
			}
			l.handle(evt)
		}
	}
}

func (l *SocketModeListener) handle(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		l.logger.Info("connecting to Slack")
	case socketmode.EventTypeConnected:
		l.logger.Info("connected to Slack")
	case socketmode.EventTypeConnectionError:
		l.logger.Warn("socket mode connection error", zap.Any("data", evt.Data))
	case socketmode.EventTypeEventsAPI:
		if evt.Request != nil {
			l.client.Ack(*evt.Request)
		}
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok || apiEvent.Type != slackevents.CallbackEvent {
			return
		}
		if msg, ok := InboundFromEvent(apiEvent.InnerEvent); ok {
			l.pool.Submit(msg)
		}
	default:
		if evt.Request != nil {
			l.client.Ack(*evt.Request)
		}
	}
}
