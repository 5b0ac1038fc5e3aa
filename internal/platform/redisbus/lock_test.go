package redisbus

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pckassistant/graph-engine/internal/data/repos/testutil"
)

func newTestNameLock(t *testing.T) *NameLock {
	t.Helper()
	if os.Getenv("REDIS_ADDR") == "" {
		t.Skip("set REDIS_ADDR to run redis lock tests")
	}
	lock, err := NewNameLock(testutil.Logger(t))
	if err != nil {
		t.Fatalf("NewNameLock: %v", err)
	}
	t.Cleanup(func() { _ = lock.Close() })
	return lock
}

func TestNameLockSerializesConcurrentHolders(t *testing.T) {
	lock := newTestNameLock(t)
	ctx := context.Background()

	const workers = 8
	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := lock.Lock(ctx, "entity:fractions")
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&maxActive)
				if n <= old || atomic.CompareAndSwapInt32(&maxActive, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected at most one concurrent holder, saw %d", maxActive)
	}
}

func TestNameLockUnlockReleasesForNextHolder(t *testing.T) {
	lock := newTestNameLock(t)
	ctx := context.Background()

	unlock, err := lock.Lock(ctx, "entity:number-line")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	unlock()

	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlock2, err := lock.Lock(ctx2, "entity:number-line")
	if err != nil {
		t.Fatalf("expected to reacquire lock after unlock, got: %v", err)
	}
	unlock2()
}
