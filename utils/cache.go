// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"rebeca/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient opens the Redis client used for delivery claims, Slack event
// de-duplication and conversation memory, and pings it once.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (cache): %w", err)
	}
	return client, nil
}
