package ai

import (
	"context"
	"fmt"
	"time"

	"rebeca/models"
	"rebeca/utils"

	"go.uber.org/zap"
)

const (
	ReplyFallback   = ":warning: Sorry, I couldn't come up with an answer right now. Please try again later."
	FailureReply    = "Sorry, something went wrong while processing your message."
	ScheduleFailure = ":x: Sorry, I couldn't save that reminder. Please try again in a moment."
)

// ConfirmationFallback is the text sent when the model cannot render a confirmation.
func ConfirmationFallback(at time.Time, description string) string {
	return fmt.Sprintf(":calendar: Reminder scheduled for %s: %s", at.Format(utils.IntentLayout), description)
}

// NotificationFallback is the text delivered when the model cannot render a notification.
func NotificationFallback(r models.Reminder) string {
	return ":bell: Reminder: " + r.Message
}

// Responder renders user-facing text with the model and falls back to fixed
// templates on any generation failure.
type Responder struct {
	gen     TextGenerator
	history ConversationStore
	loc     *time.Location
	logger  *zap.Logger
}

func NewResponder(gen TextGenerator, history ConversationStore, loc *time.Location, logger *zap.Logger) *Responder {
	if history == nil {
		history = noopConversations{}
	}
	return &Responder{gen: gen, history: history, loc: loc, logger: logger.Named("responder")}
}

// Reply answers a general query from userID.
func (r *Responder) Reply(ctx context.Context, userID, text string) string {
	turns, err := r.history.Recent(ctx, userID)
	if err != nil {
		r.logger.Warn("failed to load conversation", zap.String("user", userID), zap.Error(err))
	}

	out, err := r.gen.GenerateContent(ctx, replyPrompt(text, turns))
	if err != nil {
		r.logger.Error("reply generation failed", zap.String("user", userID), zap.Error(err))
		return ReplyFallback
	}

	if err := r.history.Append(ctx, userID, models.ConversationTurn{User: text, Assistant: out}); err != nil {
		r.logger.Warn("failed to save conversation", zap.String("user", userID), zap.Error(err))
	}
	return out
}

func (r *Responder) Confirmation(ctx context.Context, at time.Time, description string) string {
	at = at.In(r.loc)
	out, err := r.gen.GenerateContent(ctx, confirmationPrompt(at, description))
	if err != nil {
		r.logger.Warn("confirmation generation failed, using template", zap.Error(err))
		return ConfirmationFallback(at, description)
	}
	return out
}

func (r *Responder) Notification(ctx context.Context, reminder models.Reminder) string {
	out, err := r.gen.GenerateContent(ctx, notificationPrompt(reminder))
	if err != nil {
		r.logger.Warn("notification generation failed, using template",
			zap.String("reminder", reminder.ID), zap.Error(err))
		return NotificationFallback(reminder)
	}
	return out
}
