package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock already held")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// LockRepository implements a single-holder Redis lock.
type LockRepository struct {
	client *redis.Client
}

// NewLockRepository constructs a lock repository. A nil client makes every
// acquisition succeed locally.
func NewLockRepository(client *redis.Client) *LockRepository {
	return &LockRepository{client: client}
}

// Acquire takes key for ttl and returns a release func bound to the owner token.
func (r *LockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if r.client == nil {
		return func(context.Context) error { return nil }, nil
	}
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
