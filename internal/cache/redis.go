// Package cache provides the Redis client and the token blacklist store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"usof/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// instrumentHook feeds redis command outcomes into the prometheus collectors.
// redis.Nil is a cache miss, not a failure.
type instrumentHook struct{}

func (instrumentHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (instrumentHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		observe(cmd.Name(), start, err)
		return err
	}
}

func (instrumentHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		observe("pipeline", start, err)
		return err
	}
}

func observe(command string, start time.Time, err error) {
	middleware.RedisCommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, redis.Nil) {
		middleware.RedisErrors.WithLabelValues(command).Inc()
	}
}

// NewClient builds an instrumented client from either a bare host:port or a
// redis:// URL. It does not dial.
func NewClient(addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	c := redis.NewClient(opts)
	c.AddHook(instrumentHook{})
	return c, nil
}

// Connect builds a client and pings it. The client is closed on failure.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	c, err := NewClient(addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		host := c.Options().Addr
		_ = c.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", host, err)
	}
	return c, nil
}

// ConnectOptional is Connect for callers that can run without redis. It logs
// the failure and returns nil so the in-memory fallbacks take over.
func ConnectOptional(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		middleware.Logger.WarnContext(ctx, "REDIS_URL empty, continuing without redis")
		return nil
	}
	c, err := Connect(ctx, addr)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "redis unavailable, continuing without redis", "error", err)
		return nil
	}
	middleware.Logger.InfoContext(ctx, "Redis connected successfully", "addr", c.Options().Addr)
	return c
}
