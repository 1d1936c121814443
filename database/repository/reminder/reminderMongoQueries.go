package reminderRepo

import (
	"rebeca/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// duePipeline selects pending reminders scheduled within [lower, upper] that
// have no executed history document.
func duePipeline(lower, upper string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status": models.StatusPending,
			"trigger.scheduledTime": bson.M{
				"$gte": lower,
				"$lte": upper,
			},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from": historyTable,
			"let":  bson.M{"rid": "$reminderId"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$reminderId", "$$rid"}},
					bson.M{"$eq": bson.A{"$status", models.StatusExecuted}},
				}}}},
				bson.M{"$limit": 1},
			},
			"as": "executions",
		}}},
		{{Key: "$match", Value: bson.M{"executions": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "executions": 0}}},
	}
}
