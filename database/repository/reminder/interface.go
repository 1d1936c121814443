package reminderRepo

import (
	"context"
	"time"

	"rebeca/models"
	"rebeca/utils"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
)

const (
	pendingTable = "user_reminders"
	historyTable = "user_reminders_history"
)

// Store is the durable home of reminders and their execution history.
type Store interface {
	// EnsureSchema creates tables/collections and indexes when absent. Idempotent.
	EnsureSchema(ctx context.Context) error
	// Create persists a new pending one-shot reminder with a fresh ID.
	Create(ctx context.Context, userID, message, channelID string, scheduledAt time.Time) (*models.Reminder, error)
	// QueryDue returns pending reminders with no executed history whose
	// scheduled time is within tolerance of now.
	QueryDue(ctx context.Context, now time.Time, tolerance time.Duration) ([]models.Reminder, error)
	// MarkExecuted appends the history row for a pending reminder.
	MarkExecuted(ctx context.Context, reminderID string) error
}

// Options are shared by every Store implementation.
type Options struct {
	Clock    clock.Clock
	Location *time.Location
	Timeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return o
}

// newContext bounds one store call.
func (o Options) newContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.Timeout)
}

func (o Options) newReminder(userID, message, channelID string, scheduledAt time.Time) models.Reminder {
	return models.Reminder{
		ID:     uuid.New().String(),
		UserID: userID,
		Trigger: models.Trigger{
			ChannelID:     channelID,
			ScheduledTime: utils.FormatCivil(scheduledAt, o.Location),
		},
		Message:   message,
		Type:      models.ReminderOnce,
		Status:    models.StatusPending,
		CreatedAt: o.Clock.Now().In(o.Location),
	}
}

func (o Options) newExecution(r models.Reminder) models.ReminderExecution {
	r.Status = models.StatusExecuted
	return models.ReminderExecution{
		Reminder:   r,
		ExecutedAt: o.Clock.Now().In(o.Location),
	}
}
