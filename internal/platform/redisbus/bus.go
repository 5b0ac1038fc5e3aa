package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/sse"
)

// Bus forwards sse.Message payloads between instances so a client connected
// to instance A can see events produced by a chat turn running on instance
// B. A nil Bus is valid: a single-instance deployment has no need for it,
// and callers should fall back to routing everything through the local
// Hub directly.
type Bus interface {
	Publish(ctx context.Context, trajectoryID string, msg sse.Message) error
	StartForwarder(ctx context.Context, onMsg func(trajectoryID string, msg sse.Message)) error
	Close() error
}

type envelope struct {
	TrajectoryID string      `json:"trajectoryId"`
	Message      sse.Message `json:"message"`
}

type bus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewBus(log *logger.Logger) (Bus, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "sse"
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &bus{log: log.With("service", "RedisSSEBus"), rdb: rdb, channel: ch}, nil
}

func (b *bus) Publish(ctx context.Context, trajectoryID string, msg sse.Message) error {
	raw, err := json.Marshal(envelope{TrajectoryID: trajectoryID, Message: msg})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes to the shared channel and hands every message
// not produced locally to onMsg, which is expected to look up the matching
// local Hub stream by trajectory id and re-emit it to any attached client.
func (b *bus) StartForwarder(ctx context.Context, onMsg func(trajectoryID string, msg sse.Message)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
					b.log.Warn("bad redis SSE payload", "error", err)
					continue
				}
				onMsg(env.TrajectoryID, env.Message)
			}
		}
	}()

	return nil
}

func (b *bus) Close() error {
	return b.rdb.Close()
}
