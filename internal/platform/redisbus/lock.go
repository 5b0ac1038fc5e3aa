// Package redisbus wires Redis into the graph engine's two cross-process
// concerns: a short-lived per-name lock for findOrCreateEntity, and a
// pub/sub bridge that lets SSE events fan out to a client connected to a
// different instance than the one handling the chat turn.
package redisbus

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pckassistant/graph-engine/internal/pkg/logger"
)

// NameLock implements trajectory.NameLocker with a Redis SET NX PX lock.
// It exists purely as a fast path to cut contention on the database's own
// unique index; losing the race to acquire the lock is not an error
// condition a caller needs to see, so Lock blocks with a short retry loop
// instead of failing immediately.
type NameLock struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewNameLock(log *logger.Logger) (*NameLock, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttlMs := 3000
	if v := strings.TrimSpace(os.Getenv("REDIS_LOCK_TTL_MS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ttlMs = parsed
		}
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &NameLock{log: log.With("service", "RedisNameLock"), rdb: rdb, ttl: time.Duration(ttlMs) * time.Millisecond}, nil
}

// Lock blocks until it holds the named lock or ctx is cancelled, retrying
// every 25ms. The returned unlock func is safe to call exactly once.
func (l *NameLock) Lock(ctx context.Context, name string) (func(), error) {
	key := "lock:" + name
	token := fmt.Sprintf("%d", time.Now().UnixNano())

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock acquire: %w", err)
		}
		if ok {
			return func() {
				if err := l.releaseIfOwned(context.Background(), key, token); err != nil {
					l.log.Warn("failed to release redis lock", "key", key, "error", err)
				}
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// releaseLockScript only deletes the key if it still holds this holder's
// token, so a lock that already expired and was re-acquired by someone
// else is never deleted out from under them.
const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

func (l *NameLock) releaseIfOwned(ctx context.Context, key, token string) error {
	return l.rdb.Eval(ctx, releaseLockScript, []string{key}, token).Err()
}

func (l *NameLock) Close() error {
	return l.rdb.Close()
}
