// File: services/intelligence/contextStore.go
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rebeca/models"
	"rebeca/utils"

	"github.com/go-redis/redis/v8"
)

// ConversationStore keeps the last few exchanges per user so general replies
// have some context.
type ConversationStore interface {
	Recent(ctx context.Context, userID string) ([]models.ConversationTurn, error)
	Append(ctx context.Context, userID string, turn models.ConversationTurn) error
}

const maxTurns = 6

type RedisContextStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration) *RedisContextStore {
	return &RedisContextStore{client: client, ttl: ttl}
}

func (s *RedisContextStore) Recent(ctx context.Context, userID string) ([]models.ConversationTurn, error) {
	key := utils.ConversationPrefix + userID
	items, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	turns := make([]models.ConversationTurn, 0, len(items))
	for _, item := range items {
		var turn models.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decode conversation turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisContextStore) Append(ctx context.Context, userID string, turn models.ConversationTurn) error {
	key := utils.ConversationPrefix + userID
	b, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, -maxTurns, -1)
	pipe.Expire(ctx, key, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisContextStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, utils.ConversationPrefix+userID).Err()
}

type noopConversations struct{}

func (noopConversations) Recent(context.Context, string) ([]models.ConversationTurn, error) {
	return nil, nil
}

func (noopConversations) Append(context.Context, string, models.ConversationTurn) error {
	return nil
}
