package handlers

import (
	"context"
	"regexp"
	"strings"

	"rebeca/models"
	ai "rebeca/services/intelligence"
	"rebeca/services/notification"

	"go.uber.org/zap"
)

const (
	reactionWorking = "eyes"
	reactionDone    = "white_check_mark"
)

var leadingMention = regexp.MustCompile(`^\s*<@[A-Z0-9]+>\s*`)

// MessageAgent produces the reply for one inbound message.
type MessageAgent interface {
	HandleMessage(ctx context.Context, msg models.InboundMessage) string
}

// ChatClient posts replies and manages reactions.
type ChatClient interface {
	notification.Reactor
	SendThreaded(ctx context.Context, destination, threadTS, text string) error
}

// MessageProcessor runs the Slack conversation flow shared by the Events API
// and Socket Mode transports.
type MessageProcessor struct {
	agent  MessageAgent
	chat   ChatClient
	logger *zap.Logger
}

func NewMessageProcessor(agent MessageAgent, chat ChatClient, logger *zap.Logger) *MessageProcessor {
	return &MessageProcessor{agent: agent, chat: chat, logger: logger.Named("messages")}
}

// Accepts reports whether msg should get an answer: complete, not from a bot,
// and either a DM or a mention.
func Accepts(msg models.InboundMessage) bool {
	if msg.ChannelID == "" || msg.UserID == "" || msg.Timestamp == "" || strings.TrimSpace(msg.Text) == "" {
		return false
	}
	if msg.FromBot() {
		return false
	}
	return msg.IsDirect() || msg.Mention
}

// StripMention removes the leading bot mention from a message.
func StripMention(text string) string {
	return strings.TrimSpace(leadingMention.ReplaceAllString(text, ""))
}

func (p *MessageProcessor) Process(ctx context.Context, msg models.InboundMessage) {
	if !Accepts(msg) {
		return
	}
	log := p.logger.With(zap.String("user", msg.UserID), zap.String("channel", msg.ChannelID), zap.String("ts", msg.Timestamp))

	threadTS := ""
	if msg.Mention {
		threadTS = msg.ThreadTS
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("message handling panicked", zap.Any("panic", r))
			p.apologize(ctx, msg, threadTS, log)
		}
	}()

	if err := p.chat.AddReaction(ctx, msg.ChannelID, msg.Timestamp, reactionWorking); err != nil {
		log.Warn("failed to add reaction", zap.Error(err))
	}

	msg.Text = StripMention(msg.Text)
	reply := p.agent.HandleMessage(ctx, msg)

	if err := p.chat.SendThreaded(ctx, msg.ChannelID, threadTS, reply); err != nil {
		log.Error("failed to send reply", zap.Error(err))
		p.apologize(ctx, msg, threadTS, log)
		return
	}

	if err := p.chat.RemoveReaction(ctx, msg.ChannelID, msg.Timestamp, reactionWorking); err != nil {
		log.Warn("failed to remove reaction", zap.Error(err))
	}
	if err := p.chat.AddReaction(ctx, msg.ChannelID, msg.Timestamp, reactionDone); err != nil {
		log.Warn("failed to add reaction", zap.Error(err))
	}
}

func (p *MessageProcessor) apologize(ctx context.Context, msg models.InboundMessage, threadTS string, log *zap.Logger) {
	if err := p.chat.SendThreaded(ctx, msg.ChannelID, threadTS, ai.FailureReply); err != nil {
		log.Error("failed to send apology", zap.Error(err))
	}
}
