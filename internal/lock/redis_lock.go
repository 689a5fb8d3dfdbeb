package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker serializes concurrent reconciliation attempts for the same
// merchant transaction. Acquire returns the owner token needed to release;
// acquired=false with a nil error means another attempt holds the lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Release(ctx context.Context, key, token string) error
}

// releaseScript deletes the key only when the caller still owns it, so a
// slow request cannot release a lock that already expired and was re-taken.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLock is a single-instance SET NX PX lock. The TTL is the safety net:
// a crashed holder blocks retries only until expiry.
type RedisLock struct {
	client *redis.Client
	prefix string
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client, prefix: "lock:payment:"}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *RedisLock) Release(ctx context.Context, key, token string) error {
	return l.client.Eval(ctx, releaseScript, []string{l.prefix + key}, token).Err()
}

var _ Locker = (*RedisLock)(nil)
