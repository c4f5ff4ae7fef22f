package weather

import (
	"context"
	"testing"
	"time"

	"task-weather/backend/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLookuper struct {
	mock.Mock
}

func (m *MockLookuper) Lookup(ctx context.Context, location string) Report {
	args := m.Called(ctx, location)
	return args.Get(0).(Report)
}

func newTestCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := cache.NewRedisClient(&cache.CacheConfig{Addr: mr.Addr(), MaxRetries: 1})
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisCache(client), mr
}

func TestCachedLookup_CachesAvailableReports(t *testing.T) {
	redisCache, mr := newTestCache(t)
	next := new(MockLookuper)
	next.On("Lookup", mock.Anything, "Austin").
		Return(Available(Summary{Description: "sunny", Temperature: 90})).Once()

	lookup := NewCachedLookup(next, redisCache, time.Minute)

	first := lookup.Lookup(context.Background(), "Austin")
	second := lookup.Lookup(context.Background(), "Austin")

	require.True(t, first.IsAvailable())
	require.True(t, second.IsAvailable())
	assert.Equal(t, "sunny", second.Summary.Description)
	assert.True(t, mr.Exists("weather:austin"))
	next.AssertExpectations(t)
}

func TestCachedLookup_KeyIsCaseInsensitive(t *testing.T) {
	redisCache, _ := newTestCache(t)
	next := new(MockLookuper)
	next.On("Lookup", mock.Anything, "Paris").
		Return(Available(Summary{Description: "fog", Temperature: 50})).Once()

	lookup := NewCachedLookup(next, redisCache, time.Minute)
	lookup.Lookup(context.Background(), "Paris")
	report := lookup.Lookup(context.Background(), "PARIS")

	assert.True(t, report.IsAvailable())
	next.AssertExpectations(t)
}

func TestCachedLookup_DoesNotCacheNoData(t *testing.T) {
	redisCache, mr := newTestCache(t)
	next := new(MockLookuper)
	next.On("Lookup", mock.Anything, "Gotham").Return(NoData).Twice()

	lookup := NewCachedLookup(next, redisCache, time.Minute)
	lookup.Lookup(context.Background(), "Gotham")
	lookup.Lookup(context.Background(), "Gotham")

	assert.False(t, mr.Exists("weather:gotham"))
	next.AssertExpectations(t)
}

func TestCachedLookup_RedisDownFallsThrough(t *testing.T) {
	redisCache, mr := newTestCache(t)
	mr.Close()

	next := new(MockLookuper)
	next.On("Lookup", mock.Anything, "Austin").
		Return(Available(Summary{Description: "hot", Temperature: 101}))

	report := NewCachedLookup(next, redisCache, time.Minute).Lookup(context.Background(), "Austin")

	require.True(t, report.IsAvailable())
	assert.Equal(t, "hot", report.Summary.Description)
}
