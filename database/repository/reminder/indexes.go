package reminderRepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func reminderSchema(statuses ...string) bson.M {
	status := bson.A{}
	for _, s := range statuses {
		status = append(status, s)
	}
	return bson.M{"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": bson.A{"reminderId", "userId", "trigger", "message", "reminderType", "status", "createdAt"},
		"properties": bson.M{
			"reminderId": bson.M{"bsonType": "string"},
			"userId":     bson.M{"bsonType": "string"},
			"message":    bson.M{"bsonType": "string"},
			"trigger": bson.M{
				"bsonType": "object",
				"required": bson.A{"channelId", "scheduledTime"},
				"properties": bson.M{
					"channelId":     bson.M{"bsonType": "string"},
					"scheduledTime": bson.M{"bsonType": "string", "pattern": `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`},
				},
			},
			"reminderType": bson.M{"enum": bson.A{"once"}},
			"status":       bson.M{"enum": status},
			"createdAt":    bson.M{"bsonType": "date"},
		},
	}}
}

// EnsureSchema creates both collections with validators when they are
// missing and then builds their indexes.
func (s *MongoReminderStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := s.opts.newContext(ctx)
	defer cancel()

	collections := []struct {
		name      string
		validator bson.M
		indexes   []mongo.IndexModel
	}{
		{
			name:      pendingTable,
			validator: reminderSchema("pending"),
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "reminderId", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "status", Value: 1}, {Key: "trigger.scheduledTime", Value: 1}}},
			},
		},
		{
			name:      historyTable,
			validator: reminderSchema("executed"),
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "reminderId", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
	}

	for _, c := range collections {
		names, err := s.db.ListCollectionNames(ctx, bson.M{"name": c.name})
		if err != nil {
			return persistErr("ensure schema", err)
		}
		if len(names) == 0 {
			opts := options.CreateCollection().SetValidator(c.validator)
			if err := s.db.CreateCollection(ctx, c.name, opts); err != nil {
				// Another replica may have created it between the check and now.
				var cmdErr mongo.CommandError
				if !(errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists") {
					return persistErr("ensure schema", fmt.Errorf("create %s: %w", c.name, err))
				}
			}
		}
		if _, err := s.db.Collection(c.name).Indexes().CreateMany(ctx, c.indexes); err != nil {
			return persistErr("ensure schema", fmt.Errorf("failed to create indexes on %s: %w", c.name, err))
		}
	}
	return nil
}
