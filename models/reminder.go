// File: models/reminder.go
package models

import (
	"strings"
	"time"
)

type ReminderType string

const ReminderOnce ReminderType = "once"

type ReminderStatus string

const (
	StatusPending  ReminderStatus = "pending"
	StatusExecuted ReminderStatus = "executed"
)

// Trigger says where and when a reminder fires.
type Trigger struct {
	ChannelID     string `bson:"channelId" json:"channel_id"`         // Slack channel the request came from
	ScheduledTime string `bson:"scheduledTime" json:"scheduled_time"` // civil time, utils.ScheduleLayout, reminder zone
}

// Reminder is a pending one-shot notification. The pending row is never
// mutated; execution is recorded separately in the history.
type Reminder struct {
	ID        string         `bson:"reminderId" json:"reminder_id"`
	UserID    string         `bson:"userId" json:"user_id"`         // addressee
	Trigger   Trigger        `bson:"trigger" json:"trigger"`
	Message   string         `bson:"message" json:"message"`        // shown on confirmation and on firing
	Type      ReminderType   `bson:"reminderType" json:"reminder_type"`
	Status    ReminderStatus `bson:"status" json:"status"`
	CreatedAt time.Time      `bson:"createdAt" json:"created_at"`
}

// ReminderExecution is the append-only history row written once a reminder
// has been delivered.
type ReminderExecution struct {
	Reminder   `bson:",inline"`
	ExecutedAt time.Time `bson:"executedAt" json:"executed_at"`
}

// IsDirect reports whether the reminder was requested from a direct-message
// conversation. DM channel IDs start with "D".
func (r Reminder) IsDirect() bool {
	return strings.HasPrefix(r.Trigger.ChannelID, "D")
}
