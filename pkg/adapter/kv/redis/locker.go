package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a lock only if it still holds the presented
// token. Running it on the server makes the comparison and deletion
// atomic with respect to the lock expiry and other acquisitions.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements repo.Locker with SET NX PX.
type Locker struct {
	rdb redis.UniversalClient
}

// NewLocker creates a Locker which keeps its keys in rdb.
func NewLocker(rdb redis.UniversalClient) *Locker {
	return &Locker{rdb: rdb}
}

// Acquire creates the key with a random token and the ttl expiry in
// one round trip, only if key does not exist.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("SET NX %q: %w", key, err)
	}
	if !ok {
		return "", fmt.Errorf("%q: %w", key, model.ErrLockBusy)
	}
	return token, nil
}

// Release deletes key only if it still holds token, so an expired and
// re-acquired lock is left to its new holder.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	if err != nil {
		return fmt.Errorf("releasing %q: %w", key, err)
	}
	return nil
}
