package redisbus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pckassistant/graph-engine/internal/data/repos/testutil"
	"github.com/pckassistant/graph-engine/internal/sse"
)

func newTestBus(t *testing.T) Bus {
	t.Helper()
	if os.Getenv("REDIS_ADDR") == "" {
		t.Skip("set REDIS_ADDR to run redis bus tests")
	}
	b, err := NewBus(testutil.Logger(t))
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBusForwardsPublishedMessages(t *testing.T) {
	b := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan struct {
		trajectoryID string
		msg          sse.Message
	}, 1)

	if err := b.StartForwarder(ctx, func(trajectoryID string, msg sse.Message) {
		received <- struct {
			trajectoryID string
			msg          sse.Message
		}{trajectoryID, msg}
	}); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}

	// give the subscription a moment to settle before publishing
	time.Sleep(100 * time.Millisecond)

	want := sse.Message{ID: "1", Type: sse.EventTypeChunk, Data: map[string]any{"content": "hi"}}
	if err := b.Publish(context.Background(), "traj-1", want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-received:
		if got.trajectoryID != "traj-1" {
			t.Fatalf("expected trajectoryID traj-1, got %q", got.trajectoryID)
		}
		if got.msg.Type != sse.EventTypeChunk {
			t.Fatalf("expected chunk event, got %q", got.msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded message")
	}
}
