package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when it is still held by the same owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SeatLockRepository holds short-lived per-seat locks in Redis so two admins of the
// same library cannot commit the same seat at the same time. Locks are namespaced by
// caller scope; seat numbers of different libraries never contend.
type SeatLockRepository struct {
	client *redis.Client
	prefix string
}

// NewSeatLockRepository constructs the lock store.
func NewSeatLockRepository(client *redis.Client, prefix string) *SeatLockRepository {
	if prefix == "" {
		prefix = "seat-lock"
	}
	return &SeatLockRepository{client: client, prefix: prefix}
}

// Acquire takes the lock for seat within scope on behalf of owner. It returns false when another owner holds it.
// Re-acquiring a lock already held by owner succeeds and extends it.
func (r *SeatLockRepository) Acquire(ctx context.Context, scope string, seat int, owner string, ttl time.Duration) (bool, error) {
	key := r.key(scope, seat)
	ok, err := r.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire seat lock %d: %w", seat, err)
	}
	if ok {
		return true, nil
	}
	current, err := r.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("inspect seat lock %d: %w", seat, err)
	}
	if current != owner {
		return false, nil
	}
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return false, fmt.Errorf("extend seat lock %d: %w", seat, err)
	}
	return true, nil
}

// Release drops the lock if owner still holds it.
func (r *SeatLockRepository) Release(ctx context.Context, scope string, seat int, owner string) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.key(scope, seat)}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release seat lock %d: %w", seat, err)
	}
	return nil
}

func (r *SeatLockRepository) key(scope string, seat int) string {
	if scope == "" {
		return fmt.Sprintf("%s:%d", r.prefix, seat)
	}
	return fmt.Sprintf("%s:%s:%d", r.prefix, scope, seat)
}
