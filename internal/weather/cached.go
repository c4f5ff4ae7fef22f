package weather

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"task-weather/backend/internal/cache"
)

const cacheKeyPrefix = "weather:"

// CachedLookup serves repeated lookups for the same location from Redis.
// Only available reports are cached so an outage is not remembered.
type CachedLookup struct {
	next  Lookuper
	cache *cache.RedisCache
	ttl   time.Duration
}

func NewCachedLookup(next Lookuper, redisCache *cache.RedisCache, ttl time.Duration) *CachedLookup {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedLookup{next: next, cache: redisCache, ttl: ttl}
}

func cacheKey(location string) string {
	return cacheKeyPrefix + strings.ToLower(strings.TrimSpace(location))
}

func (l *CachedLookup) Lookup(ctx context.Context, location string) Report {
	key := cacheKey(location)

	var cached Report
	err := l.cache.Get(ctx, key, &cached)
	if err == nil && cached.IsAvailable() {
		return cached
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("weather: cache read for %q failed: %v", key, err)
	}

	report := l.next.Lookup(ctx, location)
	if report.IsAvailable() {
		if err := l.cache.Set(ctx, key, report, l.ttl); err != nil {
			log.Printf("weather: cache write for %q failed: %v", key, err)
		}
	}
	return report
}
