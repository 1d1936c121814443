package handlers

import (
	"context"

	"rebeca/utils"

	"github.com/go-redis/redis/v8"
)

// EventDeduper remembers Slack event IDs so retried deliveries are handled once.
type EventDeduper interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
}

type RedisDeduper struct {
	client *redis.Client
}

func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client}
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	return d.client.SetNX(ctx, utils.SlackEventPrefix+eventID, 1, utils.SlackEventTTL).Result()
}
