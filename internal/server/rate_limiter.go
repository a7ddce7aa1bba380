package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/monitoring"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// RateLimiter throttles sensitive endpoints per client IP. Each IP gets a
// fixed number of attempts within a sliding window; attempts older than
// the window no longer count.
type RateLimiter struct {
	attempts    map[string][]time.Time
	attemptsMux sync.Mutex
	limit       int
	window      time.Duration

	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
}

// NewRateLimiter creates a rate limiter from the portal configuration
func NewRateLimiter(cfg *config.RateLimitConfig, log *logger.Logger, metrics *monitoring.MetricsCollector) *RateLimiter {
	return newRateLimiter(cfg.LoginAttempts, time.Duration(cfg.WindowSeconds)*time.Second, log, metrics)
}

func newRateLimiter(limit int, window time.Duration, log *logger.Logger, metrics *monitoring.MetricsCollector) *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		logger:   log,
		metrics:  metrics,
	}
}

// Allow records an attempt for the client and reports whether it is within
// the limit.
func (rl *RateLimiter) Allow(clientIP string) bool {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.attemptsMux.Lock()
	defer rl.attemptsMux.Unlock()

	recent := rl.attempts[clientIP][:0]
	for _, at := range rl.attempts[clientIP] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}

	if len(recent) >= rl.limit {
		rl.attempts[clientIP] = recent
		return false
	}

	rl.attempts[clientIP] = append(recent, now)
	return true
}

// Reset clears the attempt history for a client
func (rl *RateLimiter) Reset(clientIP string) {
	rl.attemptsMux.Lock()
	defer rl.attemptsMux.Unlock()
	delete(rl.attempts, clientIP)
}

// Middleware returns a gin handler enforcing the limit on one endpoint
func (rl *RateLimiter) Middleware(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		rl.logger.Security("rate_limit_exceeded", "", map[string]interface{}{
			"client_ip": c.ClientIP(),
			"endpoint":  endpoint,
		})
		rl.metrics.RecordRateLimitRejection(endpoint)

		rateErr := types.NewRateLimitError(types.ErrCodeRateLimitExceeded,
			"Too many attempts, try again later")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":   rateErr.Code,
			"message": rateErr.Message,
		})
	}
}

// StartCleanup periodically drops idle clients from the attempt map. The
// returned stop function halts the cleanup goroutine.
func (rl *RateLimiter) StartCleanup(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.window)

	rl.attemptsMux.Lock()
	defer rl.attemptsMux.Unlock()

	for ip, attempts := range rl.attempts {
		idle := true
		for _, at := range attempts {
			if at.After(cutoff) {
				idle = false
				break
			}
		}
		if idle {
			delete(rl.attempts, ip)
		}
	}
}
