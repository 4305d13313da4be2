package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := rl.Allow("1.2.3.4")
		assert.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining, retryAfter := rl.Allow("1.2.3.4")
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestAllowTracksIPsIndependently(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	allowed, _, _ := rl.Allow("1.2.3.4")
	assert.True(t, allowed)
	allowed, _, _ = rl.Allow("1.2.3.4")
	assert.False(t, allowed)

	allowed, _, _ = rl.Allow("5.6.7.8")
	assert.True(t, allowed)
}

func TestAllowResetsAfterWindow(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	allowed, _, _ := rl.Allow("1.2.3.4")
	assert.True(t, allowed)
	allowed, _, _ = rl.Allow("1.2.3.4")
	assert.False(t, allowed)

	time.Sleep(20 * time.Millisecond)
	allowed, _, _ = rl.Allow("1.2.3.4")
	assert.True(t, allowed)
}

func TestMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(1, time.Minute).Middleware())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
