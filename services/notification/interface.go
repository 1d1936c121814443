package notification

import (
	"context"
	"fmt"
	"strings"

	"rebeca/models"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Gateway delivers text to a chat destination.
type Gateway interface {
	Send(ctx context.Context, destination, text string) error
	ResolveDirectDestination(ctx context.Context, userID string) (string, error)
}

// Reactor adds and removes emoji reactions on a message.
type Reactor interface {
	AddReaction(ctx context.Context, channelID, timestamp, name string) error
	RemoveReaction(ctx context.Context, channelID, timestamp, name string) error
}

// DeliveryError is returned when the messaging service rejects a send.
type DeliveryError struct {
	Destination string
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Destination, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsDirectChannel reports whether a Slack channel ID is a direct-message conversation.
func IsDirectChannel(channelID string) bool {
	return strings.HasPrefix(channelID, "D")
}

// ResolveDestination picks where a reminder is delivered. DM conversations are
// re-opened from the user ID at send time; other channels are used as stored.
func ResolveDestination(ctx context.Context, gw Gateway, r models.Reminder) (string, error) {
	if !IsDirectChannel(r.Trigger.ChannelID) {
		return r.Trigger.ChannelID, nil
	}
	dest, err := gw.ResolveDirectDestination(ctx, r.UserID)
	if err != nil {
		return "", err
	}
	return dest, nil
}

// SlackGateway is the production Gateway and Reactor backed by the Slack Web API.
type SlackGateway struct {
	api    *slack.Client
	logger *zap.Logger
}

func NewSlackGateway(api *slack.Client, logger *zap.Logger) (*SlackGateway, error) {
	if api == nil {
		return nil, fmt.Errorf("notification gateway initialization error: slack client is nil")
	}
	return &SlackGateway{api: api, logger: logger.Named("slack")}, nil
}

func (g *SlackGateway) Send(ctx context.Context, destination, text string) error {
	return g.SendThreaded(ctx, destination, "", text)
}

// SendThreaded posts text, replying in the thread of threadTS when it is set.
func (g *SlackGateway) SendThreaded(ctx context.Context, destination, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	_, ts, err := g.api.PostMessageContext(ctx, destination, opts...)
	if err != nil {
		return &DeliveryError{Destination: destination, Err: err}
	}
	g.logger.Debug("message posted", zap.String("channel", destination), zap.String("ts", ts))
	return nil
}

func (g *SlackGateway) ResolveDirectDestination(ctx context.Context, userID string) (string, error) {
	ch, _, _, err := g.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{userID},
		ReturnIM: true,
	})
	if err != nil {
		return "", &DeliveryError{Destination: userID, Err: fmt.Errorf("open conversation: %w", err)}
	}
	return ch.ID, nil
}

func (g *SlackGateway) AddReaction(ctx context.Context, channelID, timestamp, name string) error {
	if err := g.api.AddReactionContext(ctx, name, slack.NewRefToMessage(channelID, timestamp)); err != nil {
		return fmt.Errorf("add reaction %s: %w", name, err)
	}
	return nil
}

func (g *SlackGateway) RemoveReaction(ctx context.Context, channelID, timestamp, name string) error {
	if err := g.api.RemoveReactionContext(ctx, name, slack.NewRefToMessage(channelID, timestamp)); err != nil {
		return fmt.Errorf("remove reaction %s: %w", name, err)
	}
	return nil
}
