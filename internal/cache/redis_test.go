package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCacheConfig(t *testing.T) {
	config := DefaultCacheConfig()

	if config.Addr != "localhost:6379" {
		t.Errorf("Expected Addr to be localhost:6379, got %s", config.Addr)
	}

	if config.PoolSize != 10 {
		t.Errorf("Expected PoolSize to be 10, got %d", config.PoolSize)
	}

	if config.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries to be 3, got %d", config.MaxRetries)
	}

	if config.DialTimeout != 5*time.Second {
		t.Errorf("Expected DialTimeout to be 5s, got %v", config.DialTimeout)
	}
}

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := NewRedisClient(&CacheConfig{
		Addr:         mr.Addr(),
		PoolSize:     10,
		MaxRetries:   1,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client), mr
}

func TestNewRedisClient_WithNilConfig(t *testing.T) {
	client := NewRedisClient(nil)
	defer client.Close()

	assert.Equal(t, "localhost:6379", client.Options().Addr)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	type testData struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	original := testData{Name: "test", Value: 42}
	require.NoError(t, cache.Set(ctx, "test:key", original, time.Minute))

	var retrieved testData
	require.NoError(t, cache.Get(ctx, "test:key", &retrieved))
	assert.Equal(t, original, retrieved)

	stats := cache.Metrics()
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestRedisCache_Get_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	var result string
	err := cache.Get(context.Background(), "non-existent-key", &result)

	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, int64(1), cache.Metrics().Misses)
}

func TestRedisCache_Expiration(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "test:ttl", "value", time.Minute))
	mr.FastForward(2 * time.Minute)

	var result string
	assert.ErrorIs(t, cache.Get(ctx, "test:ttl", &result), ErrCacheMiss)
}

func TestRedisCache_Set_InvalidData(t *testing.T) {
	cache, _ := setupTestRedis(t)

	ch := make(chan int)
	err := cache.Set(context.Background(), "test:key", ch, time.Minute)

	assert.Error(t, err)
	assert.Equal(t, int64(1), cache.Metrics().Errors)
}

func TestRedisCache_Get_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, mr.Set("test:invalid", "invalid-json"))

	var result map[string]interface{}
	assert.Error(t, cache.Get(context.Background(), "test:invalid", &result))
}

func TestRedisCache_Health(t *testing.T) {
	cache, mr := setupTestRedis(t)

	assert.NoError(t, cache.Health(context.Background()))

	mr.Close()
	assert.Error(t, cache.Health(context.Background()))
}

func TestCacheMetrics_HitRate(t *testing.T) {
	m := NewCacheMetrics()
	assert.Equal(t, 0.0, m.GetStats().HitRate())

	m.RecordHit()
	m.RecordHit()
	m.RecordHit()
	m.RecordMiss()

	assert.InDelta(t, 75.0, m.GetStats().HitRate(), 0.001)
}
