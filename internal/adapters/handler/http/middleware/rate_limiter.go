package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "fasting:rate_limit:"

// RateLimiter is a fixed-window counter per client IP kept in Redis.
// It fails open: when Redis is unreachable requests are let through.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	exempt map[string]struct{}
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, exemptPaths ...string) *RateLimiter {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[p] = struct{}{}
	}
	return &RateLimiter{rdb: rdb, limit: limit, window: window, exempt: exempt}
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := l.exempt[c.FullPath()]; ok {
			c.Next()
			return
		}

		count, ttl, err := l.hit(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Printf("[RATE] Redis error, limiter skipped: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(l.limit)-count), 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if count > int64(l.limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "too many requests",
				"retry_in_s": int(ttl.Seconds()),
			})
			return
		}

		c.Next()
	}
}

func (l *RateLimiter) hit(ctx context.Context, ip string) (int64, time.Duration, error) {
	key := rateLimitPrefix + ip

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			// A key without expiry would block the client forever.
			l.rdb.Del(ctx, key)
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	return count, ttl, nil
}

// RateLimiterMiddleware is shorthand for NewRateLimiter(...).Middleware().
func RateLimiterMiddleware(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return NewRateLimiter(rdb, limit, window).Middleware()
}
