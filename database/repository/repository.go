package repository

import (
	reminderRepo "rebeca/database/repository/reminder"
)

// Re-export the reminder Store interface and constructors.
type ReminderStore = reminderRepo.Store

type ReminderStoreOptions = reminderRepo.Options

var (
	NewMongoReminderStore    = reminderRepo.NewMongoReminderStore
	NewPostgresReminderStore = reminderRepo.NewPostgresReminderStore
)
