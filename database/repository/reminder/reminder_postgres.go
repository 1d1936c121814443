package reminderRepo

import (
	"context"
	"errors"
	"time"

	"rebeca/models"
	"rebeca/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool the Postgres store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresReminderStore implements Store using Postgres.
type PostgresReminderStore struct {
	db   DBTX
	opts Options
}

func NewPostgresReminderStore(db DBTX, opts Options) *PostgresReminderStore {
	return &PostgresReminderStore{db: db, opts: opts.withDefaults()}
}

const reminderColumns = `reminder_id, user_id, channel_id, scheduled_time, message, reminder_type, status, created_at`

const insertReminderSQL = `INSERT INTO user_reminders (` + reminderColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const dueRemindersSQL = `SELECT r.reminder_id, r.user_id, r.channel_id, r.scheduled_time, r.message, r.reminder_type, r.status, r.created_at
FROM user_reminders r
LEFT JOIN user_reminders_history h
	ON h.reminder_id = r.reminder_id AND h.status = 'executed'
WHERE h.reminder_id IS NULL
	AND r.status = 'pending'
	AND r.scheduled_time BETWEEN $1 AND $2`

const selectPendingSQL = `SELECT ` + reminderColumns + `
FROM user_reminders
WHERE reminder_id = $1 AND status = 'pending'`

const insertExecutionSQL = `INSERT INTO user_reminders_history (` + reminderColumns + `, executed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (reminder_id) DO NOTHING`

func (s *PostgresReminderStore) Create(ctx context.Context, userID, message, channelID string, scheduledAt time.Time) (*models.Reminder, error) {
	ctx, cancel := s.opts.newContext(ctx)
	defer cancel()

	r := s.opts.newReminder(userID, message, channelID, scheduledAt)
	_, err := s.db.Exec(ctx, insertReminderSQL,
		r.ID, r.UserID, r.Trigger.ChannelID, r.Trigger.ScheduledTime,
		r.Message, string(r.Type), string(r.Status), r.CreatedAt)
	if err != nil {
		return nil, persistErr("create", err)
	}
	return &r, nil
}

func (s *PostgresReminderStore) QueryDue(ctx context.Context, now time.Time, tolerance time.Duration) ([]models.Reminder, error) {
	ctx, cancel := s.opts.newContext(ctx)
	defer cancel()

	lower, upper := utils.DueWindow(now, tolerance, s.opts.Location)
	rows, err := s.db.Query(ctx, dueRemindersSQL, lower, upper)
	if err != nil {
		return nil, persistErr("query due", err)
	}
	defer rows.Close()

	var due []models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, persistErr("query due", err)
		}
		due = append(due, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("query due", err)
	}
	return due, nil
}

func (s *PostgresReminderStore) MarkExecuted(ctx context.Context, reminderID string) error {
	ctx, cancel := s.opts.newContext(ctx)
	defer cancel()

	r, err := scanReminder(s.db.QueryRow(ctx, selectPendingSQL, reminderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return persistErr("mark executed", err)
	}

	e := s.opts.newExecution(r)
	tag, err := s.db.Exec(ctx, insertExecutionSQL,
		e.ID, e.UserID, e.Trigger.ChannelID, e.Trigger.ScheduledTime,
		e.Message, string(e.Type), string(e.Status), e.CreatedAt, e.ExecutedAt)
	if err != nil {
		return persistErr("mark executed", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExecuted
	}
	return nil
}

func scanReminder(row pgx.Row) (models.Reminder, error) {
	var (
		r          models.Reminder
		typ, state string
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Trigger.ChannelID, &r.Trigger.ScheduledTime,
		&r.Message, &typ, &state, &r.CreatedAt)
	if err != nil {
		return models.Reminder{}, err
	}
	r.Type = models.ReminderType(typ)
	r.Status = models.ReminderStatus(state)
	return r, nil
}
