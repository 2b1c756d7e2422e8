package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

var errNoStore = errors.New("rate limit store not configured")

// RateLimitConfig describes one fixed-window limit. Name namespaces the
// counters so login and register are throttled independently.
type RateLimitConfig struct {
	Name     string
	Limit    int
	Window   time.Duration
	Policy   FailPolicy
	Disabled bool
}

// Window is the state of one counter after a hit.
type Window struct {
	Count     int64
	Remaining int
	ResetIn   time.Duration
}

func rateLimitKey(name, id string) string {
	return fmt.Sprintf("usof:rl:%s:%s", name, id)
}

// Hit counts one request against key. The window starts on the first hit and
// is not extended by later ones.
func Hit(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (Window, error) {
	if rdb == nil {
		return Window{}, errNoStore
	}

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	if _, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	}); err != nil {
		return Window{}, err
	}

	resetIn := ttl.Val()
	if resetIn < 0 {
		if err := rdb.PExpire(ctx, key, window).Err(); err != nil {
			return Window{}, err
		}
		resetIn = window
	}

	remaining := int64(limit) - incr.Val()
	if remaining < 0 {
		remaining = 0
	}
	return Window{Count: incr.Val(), Remaining: int(remaining), ResetIn: resetIn}, nil
}

// RateLimit returns a Fiber middleware enforcing cfg. It keys by the
// authenticated user when one is in locals, by remote IP otherwise.
func RateLimit(rdb *redis.Client, cfg RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Disabled {
			return c.Next()
		}

		id := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(string); ok && uid != "" {
			id = "user:" + uid
		}
		name := cfg.Name
		if name == "" {
			name = c.Path()
		}

		w, err := Hit(c.UserContext(), rdb, rateLimitKey(name, id), cfg.Limit, cfg.Window)
		if err != nil {
			if cfg.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"limit", name, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Rate limiting unavailable, try again shortly",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(w.Remaining))
		if w.Count > int64(cfg.Limit) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(w.ResetIn.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many attempts, please try again later.",
			})
		}
		return c.Next()
	}
}
