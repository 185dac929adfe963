package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	APIWindow     = time.Minute
	CartAddWindow = time.Minute
	CartAddLimit  = 20
)

// Counter counts hits on key within a fixed window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Hit increments key and starts its window on the first hit.
func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// limit rejects a request once the caller's counter exceeds ceiling. A failing
// counter lets the request through.
func limit(counter Counter, logger *zap.Logger, ceiling int, window time.Duration, key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if k == "" || ceiling <= 0 {
			c.Next()
			return
		}
		n, err := counter.Hit(c.Request.Context(), k, window)
		if err != nil {
			logger.Warn("⚠️ rate limiter unavailable", zap.String("key", k), zap.Error(err))
			c.Next()
			return
		}
		remaining := int64(ceiling) - n
		c.Header("X-RateLimit-Limit", strconv.Itoa(ceiling))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(remaining, 0), 10))
		if n > int64(ceiling) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("too many requests, retry in %d seconds", int(window.Seconds())),
				"retry_after": int(window.Seconds()),
			})
			return
		}
		c.Next()
	}
}

// APIRateLimit caps requests per client IP per minute.
func APIRateLimit(counter Counter, logger *zap.Logger, perMinute int) gin.HandlerFunc {
	return limit(counter, logger, perMinute, APIWindow, func(c *gin.Context) string {
		return "api_requests:" + c.ClientIP()
	})
}

// CartRateLimit caps cart additions per signed-in user.
func CartRateLimit(counter Counter, logger *zap.Logger) gin.HandlerFunc {
	return limit(counter, logger, CartAddLimit, CartAddWindow, func(c *gin.Context) string {
		if id := UserID(c); id != "" {
			return "cart_add:" + id
		}
		return ""
	})
}
