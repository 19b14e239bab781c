package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newLimitedRouter(t *testing.T, client *redis.Client, cfg RateLimiterConfig) (*gin.Engine, *fakeClock) {
	gin.SetMode(gin.TestMode)

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(client, cfg, zaptest.NewLogger(t))
	rl.now = clock.Now

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, clock
}

func get(r *gin.Engine, path, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_WithinBurst(t *testing.T) {
	client, _ := setupTestRedis(t)
	r, _ := newLimitedRouter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 5})

	for i := 0; i < 5; i++ {
		w := get(r, "/users/1", "10.0.0.1")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_ExceedsBurst(t *testing.T) {
	client, _ := setupTestRedis(t)
	r, _ := newLimitedRouter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 3})

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, get(r, "/users/1", "10.0.0.1").Code)
	}

	w := get(r, "/users/1", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestRateLimiter_Refills(t *testing.T) {
	client, _ := setupTestRedis(t)
	r, clock := newLimitedRouter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2})

	require.Equal(t, http.StatusOK, get(r, "/users/1", "10.0.0.1").Code)
	require.Equal(t, http.StatusOK, get(r, "/users/1", "10.0.0.1").Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, "/users/1", "10.0.0.1").Code)

	clock.Advance(500 * time.Millisecond)

	assert.Equal(t, http.StatusOK, get(r, "/users/1", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/users/1", "10.0.0.1").Code)
}

func TestRateLimiter_BucketPerClientAndRoute(t *testing.T) {
	client, _ := setupTestRedis(t)
	r, _ := newLimitedRouter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1})

	require.Equal(t, http.StatusOK, get(r, "/users/1", "10.0.0.1").Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, "/users/2", "10.0.0.1").Code)

	// Another client has its own bucket
	assert.Equal(t, http.StatusOK, get(r, "/users/1", "10.0.0.2").Code)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	r, _ := newLimitedRouter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1})

	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/users/1", "10.0.0.1").Code)
	}
}

func TestRateLimiter_KeyExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	r, _ := newLimitedRouter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 2})

	require.Equal(t, http.StatusOK, get(r, "/users/1", "10.0.0.1").Code)

	key := "ratelimit:tb:GET:/users/:id:10.0.0.1"
	require.True(t, mr.Exists(key))
	assert.Equal(t, 3*time.Second, mr.TTL(key))
}
