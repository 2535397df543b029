package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/wellkeeper/internal/logging"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxLimiters bounds the per-client map; it is reset when exceeded.
const maxLimiters = 10000

// rateLimiter hands out one token bucket per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	logger   logging.Logger
}

func newRateLimiter(perSecond float64, burst int, logger logging.Logger) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		logger:   logger,
	}
}

func (rl *rateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= maxLimiters {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

func (rl *rateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		if !rl.limiter(key).Allow() {
			rl.logger.Warn(c.Request.Context(), "rate limit exceeded", "client_ip", key, "path", c.FullPath())
			c.Header("Retry-After", retryAfter(rl.rate))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Message: "Too many requests, please try again later"})
			return
		}

		c.Next()
	}
}

func retryAfter(r rate.Limit) string {
	if r <= 0 {
		return "60"
	}
	d := time.Duration(float64(time.Second) / float64(r))
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
