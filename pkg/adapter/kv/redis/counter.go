package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments a counter and sets its expiry on the first
// increment, so a counter never outlives its window even if the
// client fails between the two commands.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Counter implements repo.Counter with INCR and PEXPIRE.
type Counter struct {
	rdb redis.UniversalClient
}

// NewCounter creates a Counter which keeps its keys in rdb.
func NewCounter(rdb redis.UniversalClient) *Counter {
	return &Counter{rdb: rdb}
}

// Incr increments key and starts its window expiry on the first hit.
func (c *Counter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := incrScript.Run(
		ctx, c.rdb, []string{key}, window.Milliseconds(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("INCR %q: %w", key, err)
	}
	return n, nil
}
