package reminderRepo

import (
	"context"
	"fmt"
)

// scheduled_time uses the C collation so BETWEEN compares byte-wise, which
// matches chronological order for the fixed-width layout.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_reminders (
		reminder_id    TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		channel_id     TEXT NOT NULL,
		scheduled_time TEXT COLLATE "C" NOT NULL,
		message        TEXT NOT NULL,
		reminder_type  TEXT NOT NULL DEFAULT 'once' CHECK (reminder_type = 'once'),
		status         TEXT NOT NULL DEFAULT 'pending' CHECK (status = 'pending'),
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS user_reminders_pending_scheduled_idx
		ON user_reminders (scheduled_time) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS user_reminders_history (
		reminder_id    TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		channel_id     TEXT NOT NULL,
		scheduled_time TEXT COLLATE "C" NOT NULL,
		message        TEXT NOT NULL,
		reminder_type  TEXT NOT NULL,
		status         TEXT NOT NULL CHECK (status = 'executed'),
		created_at     TIMESTAMPTZ NOT NULL,
		executed_at    TIMESTAMPTZ NOT NULL
	)`,
}

func (s *PostgresReminderStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := s.opts.newContext(ctx)
	defer cancel()

	for i, stmt := range postgresSchema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return persistErr("ensure schema", fmt.Errorf("statement %d: %w", i+1, err))
		}
	}
	return nil
}
