package middleware

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"socialhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// FailPolicy defines the behavior when the rate limit store (Redis) errors.
type FailPolicy int

const (
	// FailOpen falls back to the in-process limiter if Redis errors.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis errors.
	FailClosed
)

const maxLocalBuckets = 10000

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiters backs rate limiting when no Redis client is configured.
var localLimiters = struct {
	sync.Mutex
	buckets map[string]*localBucket
}{buckets: make(map[string]*localBucket)}

func allowLocal(key string, limit int, window time.Duration) bool {
	now := time.Now()

	localLimiters.Lock()
	defer localLimiters.Unlock()

	b, ok := localLimiters.buckets[key]
	if !ok {
		if len(localLimiters.buckets) >= maxLocalBuckets {
			for k, old := range localLimiters.buckets {
				if now.Sub(old.lastSeen) > window {
					delete(localLimiters.buckets, k)
				}
			}
		}
		b = &localBucket{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
		localLimiters.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func resetLocalLimiters() {
	localLimiters.Lock()
	localLimiters.buckets = make(map[string]*localBucket)
	localLimiters.Unlock()
}

func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "test", "stress":
		return true
	}
	return false
}

// CheckRateLimit checks if a resource has exceeded its rate limit.
// Returns true if allowed, false if limit exceeded.
// A nil rdb uses a per-process token bucket instead of the shared Redis counter.
// Rate limiting is disabled when APP_ENV is "test" or "stress".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitBypassed() || limit <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	if rdb == nil {
		return allowLocal(key, limit, window), nil
	}

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`.
// It keys by authenticated userID (if set in c.Locals("userID")) otherwise by remote IP.
// It defaults to FailOpen policy.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		var id string
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(ctx, rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(ctx, "rate limit store unavailable, failing closed",
					"resource", resource, "path", c.Path(), "error", err)
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					models.NewInternalError(err))
			}
			Logger.WarnContext(ctx, "rate limit store unavailable, using local limiter",
				"resource", resource, "error", err)
			allowed = allowLocal(fmt.Sprintf("rl:%s:%s", resource, id), limit, window)
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
				Code:    "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
