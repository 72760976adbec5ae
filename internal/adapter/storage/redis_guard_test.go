package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisGuard_ClaimOnce(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	guard := NewRedisGuard(client)
	key := "withdrawal:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), idempotencyKeyPrefix+key) })

	ok, err := guard.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.TTL(ctx, idempotencyKeyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRedisGuard_Release(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	guard := NewRedisGuard(client)
	key := "withdrawal:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), idempotencyKeyPrefix+key) })

	ok, err := guard.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, guard.Release(ctx, key))

	ok, err = guard.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGuard_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	guard := NewRedisGuard(client)
	key := "withdrawal:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), idempotencyKeyPrefix+key) })

	var claimed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := guard.Claim(context.Background(), key, time.Minute)
			if err == nil && ok {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), claimed.Load())
}

func TestRedisGuard_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	_, err := NewRedisGuard(client).Claim(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}
