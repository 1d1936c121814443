package reminder

import (
	"context"
	"fmt"
	"time"

	"rebeca/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Claimer hands out short leases so that only one poller delivers a given
// reminder when several run at once.
type Claimer interface {
	Claim(ctx context.Context, reminderID string) (bool, error)
	Release(ctx context.Context, reminderID string) error
}

// RedisClaimer takes leases with SET NX PX.
type RedisClaimer struct {
	client *redis.Client
	ttl    time.Duration
	owner  string
}

func NewRedisClaimer(client *redis.Client, ttl time.Duration) *RedisClaimer {
	return &RedisClaimer{client: client, ttl: ttl, owner: uuid.New().String()}
}

func (c *RedisClaimer) Claim(ctx context.Context, reminderID string) (bool, error) {
	ok, err := c.client.SetNX(ctx, utils.ClaimPrefix+reminderID, c.owner, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", reminderID, err)
	}
	return ok, nil
}

// releaseScript deletes the claim only if it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (c *RedisClaimer) Release(ctx context.Context, reminderID string) error {
	if err := releaseScript.Run(ctx, c.client, []string{utils.ClaimPrefix + reminderID}, c.owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release %s: %w", reminderID, err)
	}
	return nil
}

// NoopClaimer always grants the claim.
type NoopClaimer struct{}

func (NoopClaimer) Claim(context.Context, string) (bool, error) { return true, nil }
func (NoopClaimer) Release(context.Context, string) error       { return nil }
