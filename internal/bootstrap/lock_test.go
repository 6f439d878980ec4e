package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/router-for-me/proxyseed/internal/config"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestOpenRedisLocker_DisabledWithoutAddr(t *testing.T) {
	locker, err := OpenRedisLocker(context.Background(), config.RedisLockConfig{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if locker != nil {
		t.Fatalf("expected nil locker without address")
	}
}

func TestOpenRedisLocker_UnreachableFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := OpenRedisLocker(ctx, config.RedisLockConfig{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatalf("expected ping error for unreachable redis")
	}
}

func TestNewRedisLocker_Key(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer func() { _ = client.Close() }()

	if got := NewRedisLocker(client, "seed", 0).Key(); got != "seed:bootstrap:lock" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := NewRedisLocker(client, " ", time.Second).Key(); got != "bootstrap:lock" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestRedisLocker_NilLockFails(t *testing.T) {
	var locker *RedisLocker
	if _, err := locker.Lock(context.Background()); err == nil {
		t.Fatalf("expected error for nil locker")
	}
}

func TestRedisLocker_AcquireBlockRelease(t *testing.T) {
	mr, client := newTestRedis(t)
	holder := NewRedisLocker(client, "test", 5*time.Second)
	waiter := NewRedisLocker(client, "test", 5*time.Second)
	waiter.retryDelay = 10 * time.Millisecond

	unlock, err := holder.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !mr.Exists(holder.Key()) {
		t.Fatalf("expected lock key %q to be set", holder.Key())
	}
	if ttl := mr.TTL(holder.Key()); ttl <= 0 || ttl > 5*time.Second {
		t.Fatalf("expected lock ttl within 5s, got %s", ttl)
	}

	ctxWait, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, errWait := waiter.Lock(ctxWait); !errors.Is(errWait, ErrLockNotAcquired) {
		t.Fatalf("expected ErrLockNotAcquired while held, got %v", errWait)
	}

	if errUnlock := unlock(context.Background()); errUnlock != nil {
		t.Fatalf("unlock: %v", errUnlock)
	}
	if mr.Exists(holder.Key()) {
		t.Fatalf("expected lock key to be deleted on release")
	}

	unlockWaiter, err := waiter.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	if errUnlock := unlockWaiter(context.Background()); errUnlock != nil {
		t.Fatalf("unlock waiter: %v", errUnlock)
	}
}

func TestRedisLocker_WaiterAcquiresAfterRelease(t *testing.T) {
	_, client := newTestRedis(t)
	holder := NewRedisLocker(client, "test", 5*time.Second)
	waiter := NewRedisLocker(client, "test", 5*time.Second)
	waiter.retryDelay = 10 * time.Millisecond

	unlock, err := holder.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	acquired := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		unlockWaiter, errLock := waiter.Lock(ctx)
		if errLock == nil {
			errLock = unlockWaiter(context.Background())
		}
		acquired <- errLock
	}()

	time.Sleep(50 * time.Millisecond)
	if errUnlock := unlock(context.Background()); errUnlock != nil {
		t.Fatalf("unlock: %v", errUnlock)
	}
	if errWaiter := <-acquired; errWaiter != nil {
		t.Fatalf("expected waiter to acquire after release, got %v", errWaiter)
	}
}

func TestRedisLocker_StaleReleaseKeepsNewHolder(t *testing.T) {
	mr, client := newTestRedis(t)
	first := NewRedisLocker(client, "test", time.Second)
	second := NewRedisLocker(client, "test", time.Second)

	unlockFirst, err := first.Lock(context.Background())
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}
	// The first holder's lease expires before it releases.
	mr.FastForward(2 * time.Second)

	unlockSecond, err := second.Lock(context.Background())
	if err != nil {
		t.Fatalf("second Lock: %v", err)
	}
	token, errGet := mr.Get(second.Key())
	if errGet != nil {
		t.Fatalf("read lock token: %v", errGet)
	}

	if errUnlock := unlockFirst(context.Background()); errUnlock != nil {
		t.Fatalf("stale unlock: %v", errUnlock)
	}
	current, errGet := mr.Get(second.Key())
	if errGet != nil || current != token {
		t.Fatalf("expected second holder to keep the lock, got %q (%v)", current, errGet)
	}

	if errUnlock := unlockSecond(context.Background()); errUnlock != nil {
		t.Fatalf("unlock: %v", errUnlock)
	}
	if mr.Exists(second.Key()) {
		t.Fatalf("expected lock key to be deleted by its holder")
	}
}

func TestOpenRedisLocker_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	locker, err := OpenRedisLocker(context.Background(), config.RedisLockConfig{Addr: mr.Addr(), Prefix: "seed", TTL: time.Second})
	if err != nil {
		t.Fatalf("OpenRedisLocker: %v", err)
	}
	defer func() { _ = locker.Close() }()
	if locker == nil || locker.Key() != "seed:bootstrap:lock" {
		t.Fatalf("unexpected locker: %+v", locker)
	}
}
