package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlacklistKeyPrefix namespaces revoked tokens in redis.
const BlacklistKeyPrefix = "blacklist:"

// TokenBlacklist records revoked tokens until they would have expired anyway.
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	Blacklist(ctx context.Context, token string, ttl time.Duration) error
}

func BlacklistKey(token string) string {
	return BlacklistKeyPrefix + token
}

type redisBlacklist struct {
	rdb *redis.Client
}

// NewRedisBlacklist stores revoked tokens as expiring redis keys.
func NewRedisBlacklist(rdb *redis.Client) TokenBlacklist {
	return &redisBlacklist{rdb: rdb}
}

func (b *redisBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := b.rdb.Exists(ctx, BlacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

func (b *redisBlacklist) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.rdb.Set(ctx, BlacklistKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// memoryBlacklist keeps revoked tokens in process memory. It only serves
// single-instance development runs without redis.
type memoryBlacklist struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]time.Time
}

// NewMemoryBlacklist returns an in-process blacklist.
func NewMemoryBlacklist() TokenBlacklist {
	return &memoryBlacklist{now: time.Now, entries: make(map[string]time.Time)}
}

func (b *memoryBlacklist) IsBlacklisted(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exp, ok := b.entries[token]
	if !ok {
		return false, nil
	}
	if !b.now().Before(exp) {
		delete(b.entries, token)
		return false, nil
	}
	return true, nil
}

func (b *memoryBlacklist) Blacklist(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for k, exp := range b.entries {
		if !now.Before(exp) {
			delete(b.entries, k)
		}
	}
	b.entries[token] = now.Add(ttl)
	return nil
}

// NewTokenBlacklist picks the redis store when a client is available.
func NewTokenBlacklist(rdb *redis.Client) TokenBlacklist {
	if rdb == nil {
		return NewMemoryBlacklist()
	}
	return NewRedisBlacklist(rdb)
}
