package tasks

import (
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypePollDue   = "reminder:poll"
	ReminderQueue = "reminders"
)

// NewPollTask builds the periodic "look for due reminders" task. The task is
// unique per interval so replicas sharing Redis run at most one poll per period.
func NewPollTask(interval time.Duration) (*asynq.Task, []asynq.Option) {
	task := asynq.NewTask(TypePollDue, nil)
	opts := []asynq.Option{
		asynq.Queue(ReminderQueue),
		asynq.Unique(interval),
		asynq.MaxRetry(0),
		asynq.Timeout(interval),
	}
	return task, opts
}
