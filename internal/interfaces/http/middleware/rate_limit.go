// internal/interfaces/http/middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimit allows limit requests per client IP per minute using a fixed Redis window.
// Requests pass through when Redis is unavailable.
func RateLimit(client *redis.Client, limit int, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		window := time.Now().Unix() / 60
		key := fmt.Sprintf("rate_limit:%s:%d", c.ClientIP(), window)

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		pipe := client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, time.Minute)
		if _, err := pipe.Exec(ctx); err != nil {
			log.WithError(err).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		count := int(incr.Val())
		remaining := max(limit-count, 0)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt((window+1)*60, 10))

		if count > limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": (window+1)*60 - time.Now().Unix(),
			})
			return
		}

		c.Next()
	}
}
