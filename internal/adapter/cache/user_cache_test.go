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

	domain "user-registration-service/internal/domain/user"
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

func sampleUser() domain.User {
	return domain.User{
		ID:        1,
		FullName:  "Ann Lee",
		Email:     "ann@x.io",
		Phone:     "555-0100",
		Password:  "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8",
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "user:42", Key(42))
}

func TestRedisUserCache_Set(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))
	user := sampleUser()

	require.NoError(t, cache.Set(context.Background(), user))

	data, err := client.Get(context.Background(), "user:1").Bytes()
	require.NoError(t, err)

	var cached domain.User
	require.NoError(t, json.Unmarshal(data, &cached))
	assert.Equal(t, user, cached)
	assert.Equal(t, 5*time.Minute, mr.TTL("user:1"))
}

func TestRedisUserCache_Get_Hit(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))
	user := sampleUser()
	require.NoError(t, cache.Set(context.Background(), user))

	got, found, err := cache.Get(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, user.FullName, got.FullName)
	assert.Equal(t, user.Password, got.Password)
	assert.True(t, user.CreatedAt.Equal(got.CreatedAt))
}

func TestRedisUserCache_Get_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	_, found, err := cache.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisUserCache_Get_Expired(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))
	require.NoError(t, cache.Set(context.Background(), sampleUser()))

	mr.FastForward(2 * time.Minute)

	_, found, err := cache.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisUserCache_Get_CorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))
	require.NoError(t, mr.Set("user:1", "{not json"))

	_, found, err := cache.Get(context.Background(), 1)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedisUserCache_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))
	require.NoError(t, cache.Set(context.Background(), sampleUser()))

	require.NoError(t, cache.Delete(context.Background(), 1))
	assert.False(t, mr.Exists("user:1"))

	// Missing keys are fine.
	require.NoError(t, cache.Delete(context.Background(), 1))
}

func TestRedisUserCache_ServerDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))
	mr.Close()

	_, _, err := cache.Get(context.Background(), 1)
	assert.Error(t, err)
	assert.Error(t, cache.Set(context.Background(), sampleUser()))
	assert.Error(t, cache.Delete(context.Background(), 1))
}
