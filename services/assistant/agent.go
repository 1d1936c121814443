package assistant

import (
	"context"
	"time"

	reminderRepo "rebeca/database/repository/reminder"
	"rebeca/models"
	ai "rebeca/services/intelligence"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
)

const SlowDownReply = ":hourglass: You're sending messages faster than I can keep up. Give me a moment and try again."

// Limiter decides whether a user may send another message now.
type Limiter interface {
	Allow(key string) bool
}

type IntentClassifier interface {
	Classify(ctx context.Context, text string, now time.Time) models.Intent
}

type ReplyRenderer interface {
	Reply(ctx context.Context, userID, text string) string
	Confirmation(ctx context.Context, at time.Time, description string) string
}

// Agent turns one user message into one reply, scheduling a reminder when the
// message asks for one.
type Agent struct {
	classifier IntentClassifier
	responder  ReplyRenderer
	store      reminderRepo.Store
	clock      clock.Clock
	limiter    Limiter
	logger     *zap.Logger
}

func NewAgent(
	classifier IntentClassifier,
	responder ReplyRenderer,
	store reminderRepo.Store,
	clk clock.Clock,
	limiter Limiter,
	logger *zap.Logger,
) *Agent {
	if clk == nil {
		clk = clock.New()
	}
	return &Agent{
		classifier: classifier,
		responder:  responder,
		store:      store,
		clock:      clk,
		limiter:    limiter,
		logger:     logger.Named("agent"),
	}
}

// HandleMessage never fails; problems turn into an apologetic reply.
func (a *Agent) HandleMessage(ctx context.Context, msg models.InboundMessage) string {
	log := a.logger.With(zap.String("user", msg.UserID), zap.String("channel", msg.ChannelID))

	if a.limiter != nil && !a.limiter.Allow(msg.UserID) {
		log.Warn("user rate limit exceeded")
		return SlowDownReply
	}

	intent := a.classifier.Classify(ctx, msg.Text, a.clock.Now())
	if !intent.IsReminder {
		return a.responder.Reply(ctx, msg.UserID, msg.Text)
	}

	r, err := a.store.Create(ctx, msg.UserID, intent.Description, msg.ChannelID, intent.ScheduledAt)
	if err != nil {
		log.Error("failed to create reminder", zap.Error(err))
		return ai.ScheduleFailure
	}
	log.Info("reminder scheduled", zap.String("reminder", r.ID), zap.String("scheduled", r.Trigger.ScheduledTime))
	return a.responder.Confirmation(ctx, intent.ScheduledAt, intent.Description)
}
