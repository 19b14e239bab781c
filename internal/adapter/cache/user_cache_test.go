package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-management-api/internal/domain/user"
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

func testUser() *domain.User {
	return &domain.User{
		ID:       "665f1c2b8e4a2b0012345678",
		Name:     "John Doe",
		Email:    "john@example.com",
		Age:      42,
		IsActive: true,
	}
}

func TestRedisUserCache_Set_Success(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	user := testUser()
	err := cache.Set(context.Background(), user)
	require.NoError(t, err)

	// Verify data is in Redis
	data, err := client.Get(context.Background(), "user:"+user.ID).Bytes()
	require.NoError(t, err)

	var cached map[string]any
	require.NoError(t, json.Unmarshal(data, &cached))

	assert.Equal(t, user.ID, cached["id"])
	assert.Equal(t, user.Email, cached["email"])
	assert.Equal(t, float64(42), cached["age"])
	assert.Equal(t, true, cached["is_active"])
}

func TestRedisUserCache_Set_NilUser(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	err := cache.Set(context.Background(), nil)
	assert.ErrorContains(t, err, "cannot cache nil user")
}

func TestRedisUserCache_Get_Success(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	user := testUser()
	require.NoError(t, cache.Set(context.Background(), user))

	cached, err := cache.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, cached)
}

func TestRedisUserCache_Get_CacheMiss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	cached, err := cache.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_Get_CorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	require.NoError(t, mr.Set("user:broken", "{not json"))

	cached, err := cache.Get(context.Background(), "broken")
	assert.Error(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_Get_ServerDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	mr.Close()

	_, err := cache.Get(context.Background(), "any")
	assert.Error(t, err)
}

func TestRedisUserCache_Delete_Success(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	user := testUser()
	require.NoError(t, cache.Set(context.Background(), user))

	require.NoError(t, cache.Delete(context.Background(), user.ID))

	cached, err := cache.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, 2*time.Second, zaptest.NewLogger(t))

	user := testUser()
	require.NoError(t, cache.Set(context.Background(), user))

	// Fast forward time in miniredis
	mr.FastForward(3 * time.Second)

	cached, err := cache.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}
