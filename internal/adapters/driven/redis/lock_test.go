package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestLock_Acquire(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)

	acquired, err := lock.Acquire(context.Background(), "order:123456789", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("expected to acquire lock")
	}

	value, err := mr.Get(lockPrefix + "order:123456789")
	if err != nil {
		t.Fatalf("lock key missing: %v", err)
	}
	if !strings.HasPrefix(value, lock.instance+":") {
		t.Errorf("unexpected token %q", value)
	}
	if ttl := mr.TTL(lockPrefix + "order:123456789"); ttl != time.Minute {
		t.Errorf("expected 1m TTL, got %v", ttl)
	}
}

func TestLock_Acquire_AlreadyHeld(t *testing.T) {
	_, client := setupTestRedis(t)
	first := NewLock(client)
	second := NewLock(client)
	ctx := context.Background()

	if ok, _ := first.Acquire(ctx, "order:1", time.Minute); !ok {
		t.Fatal("first acquire should succeed")
	}
	ok, err := second.Acquire(ctx, "order:1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("second holder must not acquire a held lock")
	}

	// Same instance, same name, still held.
	if ok, _ := first.Acquire(ctx, "order:1", time.Minute); ok {
		t.Error("lock must not be re-entrant")
	}
}

func TestLock_Release(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	if ok, _ := lock.Acquire(ctx, "retention-sweep", time.Minute); !ok {
		t.Fatal("acquire failed")
	}
	if err := lock.Release(ctx, "retention-sweep"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists(lockPrefix + "retention-sweep") {
		t.Error("expected lock key to be deleted")
	}

	if ok, _ := lock.Acquire(ctx, "retention-sweep", time.Minute); !ok {
		t.Error("expected to re-acquire released lock")
	}
}

func TestLock_Release_NotHeld(t *testing.T) {
	_, client := setupTestRedis(t)
	lock := NewLock(client)

	if err := lock.Release(context.Background(), "never-acquired"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestLock_Release_DoesNotStealTakenOverLock(t *testing.T) {
	mr, client := setupTestRedis(t)
	first := NewLock(client)
	second := NewLock(client)
	ctx := context.Background()

	if ok, _ := first.Acquire(ctx, "order:2", time.Second); !ok {
		t.Fatal("first acquire failed")
	}
	mr.FastForward(2 * time.Second)

	if ok, _ := second.Acquire(ctx, "order:2", time.Minute); !ok {
		t.Fatal("second should acquire after expiry")
	}
	if err := first.Release(ctx, "order:2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists(lockPrefix + "order:2") {
		t.Error("stale holder released the new holder's lock")
	}
}

func TestLock_Ping(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)

	if err := lock.Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	mr.Close()
	if err := lock.Ping(context.Background()); err == nil {
		t.Error("expected error after backend shutdown")
	}
}

func TestLock_Acquire_BackendDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)
	mr.Close()

	if _, err := lock.Acquire(context.Background(), "order:3", time.Minute); err == nil {
		t.Error("expected error when redis is unreachable")
	}
}
