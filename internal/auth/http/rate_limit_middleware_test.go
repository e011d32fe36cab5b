package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
)

func newRateLimitedRouter(t *testing.T, rps float64, burst int, username string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if username != "" {
			apiKey := &authDomain.APIKey{Username: username, Key: username + "_00"}
			c.Request = c.Request.WithContext(WithAPIKey(c.Request.Context(), apiKey))
		}
		c.Next()
	})
	router.Use(RateLimitMiddleware(ctx, rps, burst, testLogger()))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	router := newRateLimitedRouter(t, 10.0, 20, "alice")

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitMiddleware_BlocksRequestsExceedingLimit(t *testing.T) {
	router := newRateLimitedRouter(t, 1.0, 2, "alice")

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"error":"rate_limit_exceeded"`)
}

func TestRateLimitMiddleware_RequiresAuthentication(t *testing.T) {
	router := newRateLimitedRouter(t, 10.0, 20, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiterStore_PerUser(t *testing.T) {
	store := &rateLimiterStore{rps: 1, burst: 1}

	alice := store.getLimiter("alice")
	assert.Same(t, alice, store.getLimiter("alice"))
	assert.NotSame(t, alice, store.getLimiter("bob"))

	assert.True(t, alice.Allow())
	assert.False(t, alice.Allow())
	assert.True(t, store.getLimiter("bob").Allow())
}

func TestRateLimiterStore_EvictIdle(t *testing.T) {
	store := &rateLimiterStore{rps: 1, burst: 1}
	first := store.getLimiter("alice")

	store.evictIdle(time.Now().Add(time.Minute))

	assert.NotSame(t, first, store.getLimiter("alice"))
}
