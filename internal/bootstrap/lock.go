package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/router-for-me/proxyseed/internal/config"
)

const (
	lockKeySuffix     = "bootstrap:lock"
	defaultLockTTL    = 30 * time.Second
	defaultRetryDelay = 200 * time.Millisecond
)

// ErrLockNotAcquired indicates the bootstrap lock was not obtained before the context ended.
var ErrLockNotAcquired = errors.New("bootstrap lock: not acquired")

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// UnlockFunc releases a held lock.
type UnlockFunc func(ctx context.Context) error

// Locker serializes bootstrap attempts across replicas sharing a store.
type Locker interface {
	Lock(ctx context.Context) (UnlockFunc, error)
}

// RedisLocker implements Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client     *redis.Client
	key        string
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedisLocker constructs a RedisLocker.
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{
		client:     client,
		key:        lockKey(prefix),
		ttl:        ttl,
		retryDelay: defaultRetryDelay,
	}
}

// OpenRedisLocker connects to Redis and returns a locker, or nil when no address is configured.
func OpenRedisLocker(ctx context.Context, cfg config.RedisLockConfig) (*RedisLocker, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	db := cfg.DB
	if db < 0 {
		db = 0
	}
	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Addr),
		Password: strings.TrimSpace(cfg.Password),
		DB:       db,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if errPing := client.Ping(ctxPing).Err(); errPing != nil {
		_ = client.Close()
		return nil, fmt.Errorf("bootstrap lock: ping redis: %w", errPing)
	}
	return NewRedisLocker(client, cfg.Prefix, cfg.TTL), nil
}

func lockKey(prefix string) string {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		return lockKeySuffix
	}
	return trimmed + ":" + lockKeySuffix
}

// Key returns the Redis key guarding bootstrap.
func (l *RedisLocker) Key() string {
	if l == nil {
		return ""
	}
	return l.key
}

// Lock blocks until the lock is held or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context) (UnlockFunc, error) {
	if l == nil || l.client == nil {
		return nil, fmt.Errorf("bootstrap lock: not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	token := uuid.NewString()
	for {
		acquired, errSet := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if errSet != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
			}
			return nil, fmt.Errorf("bootstrap lock: acquire: %w", errSet)
		}
		if acquired {
			return func(releaseCtx context.Context) error {
				if errRelease := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err(); errRelease != nil {
					return fmt.Errorf("bootstrap lock: release: %w", errRelease)
				}
				return nil
			}, nil
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
		case <-timer.C:
		}
	}
}

// Close releases the Redis client.
func (l *RedisLocker) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}
