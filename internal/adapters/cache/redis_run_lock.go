package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/medapp/medicine-catalog/internal/domain/providers"
	redisclient "github.com/medapp/medicine-catalog/internal/infrastructure/clients/redis"
)

const lockKeyPrefix = "lock:"

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunLock implements RunLock with SET NX and a per-holder token
type RedisRunLock struct {
	client *redis.Client
	token  string
}

// NewRedisRunLock creates a new Redis run lock
func NewRedisRunLock(client *redisclient.Client) providers.RunLock {
	return &RedisRunLock{
		client: client.Client(),
		token:  uuid.NewString(),
	}
}

// Acquire takes the lock for ttl
func (l *RedisRunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKeyPrefix+key, l.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// Release frees the lock if this holder still owns it
func (l *RedisRunLock) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKeyPrefix + key}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
