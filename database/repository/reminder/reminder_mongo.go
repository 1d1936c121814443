package reminderRepo

import (
	"context"
	"errors"
	"time"

	"rebeca/models"
	"rebeca/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoReminderStore implements Store using MongoDB.
type MongoReminderStore struct {
	db      *mongo.Database
	pending *mongo.Collection
	history *mongo.Collection
	opts    Options
}

// NewMongoReminderStore creates a Store backed by db.
func NewMongoReminderStore(db *mongo.Database, opts Options) *MongoReminderStore {
	return &MongoReminderStore{
		db:      db,
		pending: db.Collection(pendingTable),
		history: db.Collection(historyTable),
		opts:    opts.withDefaults(),
	}
}

func (s *MongoReminderStore) Create(ctx context.Context, userID, message, channelID string, scheduledAt time.Time) (*models.Reminder, error) {
	ctx, cancel := s.opts.newContext(ctx)
	defer cancel()

	r := s.opts.newReminder(userID, message, channelID, scheduledAt)
	if _, err := s.pending.InsertOne(ctx, r); err != nil {
		return nil, persistErr("create", err)
	}
	return &r, nil
}

func (s *MongoReminderStore) QueryDue(ctx context.Context, now time.Time, tolerance time.Duration) ([]models.Reminder, error) {
	ctx, cancel := s.opts.newContext(ctx)
	defer cancel()

	lower, upper := utils.DueWindow(now, tolerance, s.opts.Location)
	cursor, err := s.pending.Aggregate(ctx, duePipeline(lower, upper))
	if err != nil {
		return nil, persistErr("query due", err)
	}
	defer cursor.Close(ctx)

	var due []models.Reminder
	if err := cursor.All(ctx, &due); err != nil {
		return nil, persistErr("query due", err)
	}
	return due, nil
}

func (s *MongoReminderStore) MarkExecuted(ctx context.Context, reminderID string) error {
	ctx, cancel := s.opts.newContext(ctx)
	defer cancel()

	var r models.Reminder
	err := s.pending.FindOne(ctx, bson.M{"reminderId": reminderID, "status": models.StatusPending}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return persistErr("mark executed", err)
	}

	// The unique reminderId index on history turns a second insert into a
	// duplicate key error.
	if _, err := s.history.InsertOne(ctx, s.opts.newExecution(r)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExecuted
		}
		return persistErr("mark executed", err)
	}
	return nil
}
