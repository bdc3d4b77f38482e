package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	apperrors "github.com/medibook/scheduler-api/pkg/errors"
	"github.com/medibook/scheduler-api/pkg/httputil"
)

// RateLimiter keeps one token bucket per client. Buckets for idle clients
// expire with the cache TTL instead of growing without bound.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *gocache.Cache
	rps      rate.Limit
	burst    int
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: gocache.New(10*time.Minute, 15*time.Minute),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.limiters.Get(key); ok {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rl.rps, rl.burst)
	rl.limiters.SetDefault(key, limiter)
	return limiter
}

// Limit throttles by authenticated actor when present, client IP otherwise.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if actor, ok := GetActor(c); ok {
			key = actor.ID.String()
		}

		if !rl.limiterFor(key).Allow() {
			c.Abort()
			httputil.RespondWithError(c, &apperrors.AppError{
				Code:    apperrors.CodeRateLimited,
				Status:  http.StatusTooManyRequests,
				Message: "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
