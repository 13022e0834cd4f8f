package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived exclusive locks backed by SET NX
type Locker struct {
	client *redis.Client
	prefix string
}

// NewLocker creates a locker whose keys start with prefix
func NewLocker(client *redis.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// TryLock takes the lock for key if nobody holds it. ok is false when it is already held.
// The lock expires after ttl even if unlock is never called.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err = l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
	}
	return unlock, true, nil
}
