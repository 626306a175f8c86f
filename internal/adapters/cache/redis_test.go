package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Host and port", func(t *testing.T) {
		mr := miniredis.RunT(t)

		rdb, err := NewRedisClient(ctx, RedisConfig{Host: mr.Host(), Port: mr.Port()})
		require.NoError(t, err)
		defer rdb.Close()

		require.NoError(t, rdb.Set(ctx, "k", "v", time.Minute).Err())
		assert.Equal(t, "v", mustGet(t, mr, "k"))
	})

	t.Run("Success: URL takes precedence", func(t *testing.T) {
		mr := miniredis.RunT(t)

		rdb, err := NewRedisClient(ctx, RedisConfig{URL: "redis://" + mr.Addr() + "/2", Host: "ignored.invalid"})
		require.NoError(t, err)
		defer rdb.Close()

		assert.Equal(t, 2, rdb.Options().DB)
	})

	t.Run("Fail: Bad URL", func(t *testing.T) {
		_, err := NewRedisClient(ctx, RedisConfig{URL: "http://nope"})
		assert.ErrorContains(t, err, "parse redis url")
	})

	t.Run("Fail: Nothing listening", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addrHost, addrPort := mr.Host(), mr.Port()
		mr.Close()

		_, err := NewRedisClient(ctx, RedisConfig{Host: addrHost, Port: addrPort})
		assert.ErrorContains(t, err, "failed to connect to redis")
	})

	t.Run("Enabled", func(t *testing.T) {
		assert.False(t, RedisConfig{}.Enabled())
		assert.True(t, RedisConfig{Host: "localhost"}.Enabled())
		assert.True(t, RedisConfig{URL: "redis://localhost:6379"}.Enabled())
	})
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestRedisClient_Integration(t *testing.T) {
	_ = godotenv.Load("../../../.env")

	cfg := RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       1,
	}

	rdb, err := NewRedisClient(context.Background(), cfg)
	if err != nil {
		t.Skipf("Skipping Redis integration test: %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	require.NoError(t, rdb.FlushDB(ctx).Err(), "Failed to flush test DB")

	t.Run("Expire Check", func(t *testing.T) {
		key := "test_expire"
		require.NoError(t, rdb.Set(ctx, key, "expire_me", time.Second).Err())

		time.Sleep(1100 * time.Millisecond)

		_, err := rdb.Get(ctx, key).Result()
		assert.ErrorIs(t, err, redis.Nil)
	})
}
