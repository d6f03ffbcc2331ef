package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(rl *RateLimiter, userKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if userKey != "" {
		router.Use(func(c *gin.Context) {
			c.Set(userKeyContextKey, userKey)
			c.Next()
		})
	}
	router.Use(rl.Limit())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok"})
	})
	return router
}

func get(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w
}

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(5, 1*time.Minute)

	assert.NotNil(t, rl)
	assert.Equal(t, 5, rl.burst)
	assert.Equal(t, 1*time.Minute, rl.window)
	assert.NotNil(t, rl.visitors)
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	router := limitedRouter(NewRateLimiter(3, 1*time.Minute), "")

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(router, "127.0.0.1:12345").Code, "request %d", i+1)
	}

	w := get(router, "127.0.0.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
	assert.Contains(t, w.Body.String(), `"retry_after":20`)
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	router := limitedRouter(NewRateLimiter(2, 1*time.Minute), "")

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(router, "192.168.1.1:12345").Code)
	}
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(router, "192.168.1.2:12345").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(router, "192.168.1.1:12345").Code)
}

func TestRateLimiter_KeysByUser(t *testing.T) {
	rl := NewRateLimiter(1, 1*time.Minute)
	router := limitedRouter(rl, "student-1")

	assert.Equal(t, http.StatusOK, get(router, "10.0.0.1:1").Code)
	// same user from another address shares the bucket
	assert.Equal(t, http.StatusTooManyRequests, get(router, "10.0.0.2:1").Code)
	assert.Len(t, rl.visitors, 1)
}

func TestRateLimiter_Refills(t *testing.T) {
	router := limitedRouter(NewRateLimiter(2, 100*time.Millisecond), "")

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(router, "127.0.0.1:12345").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(router, "127.0.0.1:12345").Code)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, http.StatusOK, get(router, "127.0.0.1:12345").Code)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	router := limitedRouter(rl, "")
	get(router, "127.0.0.1:1")
	get(router, "127.0.0.2:1")

	assert.Equal(t, 0, rl.Cleanup(time.Now()))
	assert.Equal(t, 2, rl.Cleanup(time.Now().Add(3*time.Minute)))
	assert.Empty(t, rl.visitors)
}

func TestCreateRateLimiters(t *testing.T) {
	limiters := CreateRateLimiters()

	assert.NotNil(t, limiters["start"])
	assert.NotNil(t, limiters["general"])
	assert.Equal(t, 5, limiters["start"].burst)
	assert.Equal(t, 60, limiters["general"].burst)
}
