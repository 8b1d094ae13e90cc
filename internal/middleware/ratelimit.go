package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/gitteams/internal/cache"
	"github.com/charlesng35/gitteams/pkg/errors"
	"github.com/charlesng35/gitteams/pkg/logger"
	"github.com/charlesng35/gitteams/pkg/response"
)

const rateLimitPrefix = "ratelimit:"

// RateLimit limits requests per (client IP, route) within a fixed window. Counters
// live in the shared cache store so every instance using a database store sees the
// same window. Store failures let the request through.
func RateLimit(store cache.Store, maxRequests int, window time.Duration) gin.HandlerFunc {
	log := logger.WithModule("ratelimit")

	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := rateLimitPrefix + c.ClientIP() + "|" + route

		count, ttl, err := store.IncrementWithTTL(c.Request.Context(), key, window)
		if err != nil {
			log.Warn("rate limit store unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(maxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		resetSeconds := strconv.Itoa(int(math.Ceil(ttl.Seconds())))

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", resetSeconds)

		if count > int64(maxRequests) {
			c.Header("Retry-After", resetSeconds)
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
