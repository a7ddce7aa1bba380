package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/monitoring"
)

var (
	limiterMetricsOnce sync.Once
	limiterMetrics     *monitoring.MetricsCollector
)

func limiterCollector() *monitoring.MetricsCollector {
	limiterMetricsOnce.Do(func() {
		limiterMetrics = monitoring.NewMetricsCollector("server-test")
	})
	return limiterMetrics
}

// newTestLimiter builds the limiter from a duration directly so subtests
// can use sub-second windows; the config path only carries whole seconds.
func newTestLimiter(limit int, window time.Duration) *RateLimiter {
	return newRateLimiter(limit, window, logger.New("error"), limiterCollector())
}

func TestNewRateLimiter_FromConfig(t *testing.T) {
	cfg := &config.RateLimitConfig{
		Enabled:       true,
		LoginAttempts: 5,
		WindowSeconds: 900,
	}
	rl := NewRateLimiter(cfg, logger.New("error"), limiterCollector())

	assert.Equal(t, 5, rl.limit)
	assert.Equal(t, 15*time.Minute, rl.window)
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("allows up to the limit", func(t *testing.T) {
		rl := newTestLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("10.0.0.1"), "attempt %d should pass", i+1)
		}
		assert.False(t, rl.Allow("10.0.0.1"))
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		rl := newTestLimiter(1, time.Minute)

		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))
		assert.True(t, rl.Allow("10.0.0.2"))
	})

	t.Run("attempts expire with the window", func(t *testing.T) {
		rl := newTestLimiter(2, 50*time.Millisecond)

		assert.True(t, rl.Allow("10.0.0.1"))
		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))

		time.Sleep(60 * time.Millisecond)
		assert.True(t, rl.Allow("10.0.0.1"))
	})

	t.Run("reset clears the history", func(t *testing.T) {
		rl := newTestLimiter(1, time.Minute)

		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))

		rl.Reset("10.0.0.1")
		assert.True(t, rl.Allow("10.0.0.1"))
	})
}

func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := newTestLimiter(2, time.Minute)
	engine := gin.New()
	engine.POST("/login", rl.Middleware("login"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	hit := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:4242"
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit())
	assert.Equal(t, http.StatusOK, hit())
	assert.Equal(t, http.StatusTooManyRequests, hit())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := newTestLimiter(1, 10*time.Millisecond)

	rl.Allow("10.0.0.1")
	time.Sleep(20 * time.Millisecond)
	rl.cleanup()

	rl.attemptsMux.Lock()
	defer rl.attemptsMux.Unlock()
	assert.Empty(t, rl.attempts)
}
