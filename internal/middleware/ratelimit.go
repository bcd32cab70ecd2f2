package middleware

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimits caps requests per client. A zero limit disables that window.
type RateLimits struct {
	PerSecond int
	PerDay    int
}

// RateLimitMiddleware enforces per-second and per-day request limits per client IP.
// Counters live in Redis so that every API instance shares them. Redis errors
// let the request through.
func RateLimitMiddleware(rdb redis.Cmdable, limits RateLimits) fiber.Handler {
	return rateLimit(rdb, limits, time.Now)
}

func rateLimit(rdb redis.Cmdable, limits RateLimits, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		t := now().UTC()
		client := c.IP()

		keySecond := secondKey(client, t)
		keyDay := dayKey(client, t)

		if limits.PerSecond > 0 {
			countSecond, err := incr(ctx, rdb, keySecond, 2*time.Second)
			if err != nil {
				log.Printf("rate limit: %v", err)
			} else if countSecond > int64(limits.PerSecond) {
				c.Set("X-RateLimit-Limit-Second", strconv.Itoa(limits.PerSecond))
				c.Set("X-RateLimit-Remaining-Second", "0")
				c.Set("X-RateLimit-Reset-Second", strconv.FormatInt(t.Unix()+1, 10))
				c.Set("Retry-After", "1")

				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error":       "rate_limit_exceeded",
					"message":     "Too many requests per second",
					"limit_type":  "per_second",
					"limit":       limits.PerSecond,
					"retry_after": 1,
				})
			}
		}

		if limits.PerDay > 0 {
			countDay, err := incr(ctx, rdb, keyDay, 25*time.Hour)
			if err != nil {
				log.Printf("rate limit: %v", err)
			} else {
				if countDay > int64(limits.PerDay) {
					tomorrow := t.AddDate(0, 0, 1)
					midnight := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
					retryAfter := int64(midnight.Sub(t).Seconds())

					c.Set("X-RateLimit-Limit-Day", strconv.Itoa(limits.PerDay))
					c.Set("X-RateLimit-Remaining-Day", "0")
					c.Set("X-RateLimit-Reset-Day", strconv.FormatInt(midnight.Unix(), 10))
					c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))

					return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
						"error":       "daily_quota_exceeded",
						"message":     "Daily quota exceeded",
						"limit_type":  "per_day",
						"limit":       limits.PerDay,
						"used":        countDay,
						"retry_after": retryAfter,
						"reset_at":    midnight.Format(time.RFC3339),
					})
				}

				c.Set("X-RateLimit-Remaining-Day", strconv.FormatInt(int64(limits.PerDay)-countDay, 10))
			}
		}

		c.Set("X-RateLimit-Limit-Second", strconv.Itoa(limits.PerSecond))
		c.Set("X-RateLimit-Limit-Day", strconv.Itoa(limits.PerDay))

		return c.Next()
	}
}

// incr bumps a window counter and sets its expiry in one round trip
func incr(ctx context.Context, rdb redis.Cmdable, key string, ttl time.Duration) (int64, error) {
	var count *redis.IntCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return count.Val(), nil
}

func secondKey(client string, t time.Time) string {
	return fmt.Sprintf("rl:client:%s:second:%d", client, t.Unix())
}

func dayKey(client string, t time.Time) string {
	return fmt.Sprintf("rl:client:%s:day:%s", client, t.Format("2006-01-02"))
}

// ResetRateLimit clears the current window counters for a client
func ResetRateLimit(ctx context.Context, rdb redis.Cmdable, client string) error {
	t := time.Now().UTC()
	return rdb.Del(ctx, secondKey(client, t), dayKey(client, t)).Err()
}
