package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, "mirrorscope:"), srv
}

func TestTryLockExclusive(t *testing.T) {
	ctx := context.Background()
	locker, srv := newLocker(t)

	release, ok, err := locker.TryLock(ctx, "stage:2", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	if !srv.Exists("mirrorscope:stage:2") {
		t.Fatalf("expected prefixed key in redis")
	}

	if _, ok, err := locker.TryLock(ctx, "stage:2", time.Minute); err != nil || ok {
		t.Fatalf("second lock: ok=%v err=%v", ok, err)
	}
	if _, ok, err := locker.TryLock(ctx, "stage:3", time.Minute); err != nil || !ok {
		t.Fatalf("other key: ok=%v err=%v", ok, err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok, err := locker.TryLock(ctx, "stage:2", time.Minute); err != nil || !ok {
		t.Fatalf("relock after release: ok=%v err=%v", ok, err)
	}
}

func TestLockExpires(t *testing.T) {
	ctx := context.Background()
	locker, srv := newLocker(t)

	release, ok, err := locker.TryLock(ctx, "stage:5", time.Second)
	if err != nil || !ok {
		t.Fatalf("lock: ok=%v err=%v", ok, err)
	}
	srv.FastForward(2 * time.Second)

	if _, ok, err := locker.TryLock(ctx, "stage:5", time.Minute); err != nil || !ok {
		t.Fatalf("lock after expiry: ok=%v err=%v", ok, err)
	}
	if err := release(ctx); err == nil {
		t.Fatalf("stale release must not delete the new holder's key")
	}
	if !srv.Exists("mirrorscope:stage:5") {
		t.Fatalf("new holder's key was deleted")
	}
}
