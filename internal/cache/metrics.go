package cache

import (
	"sync/atomic"
	"time"
)

type CacheMetrics struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Errors    int64 `json:"errors"`
	Sets      int64 `json:"sets"`
	StartTime int64 `json:"start_time"`
}

func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{StartTime: time.Now().Unix()}
}

func (m *CacheMetrics) RecordHit()   { atomic.AddInt64(&m.Hits, 1) }
func (m *CacheMetrics) RecordMiss()  { atomic.AddInt64(&m.Misses, 1) }
func (m *CacheMetrics) RecordError() { atomic.AddInt64(&m.Errors, 1) }
func (m *CacheMetrics) RecordSet()   { atomic.AddInt64(&m.Sets, 1) }

// GetStats returns a consistent-enough copy for reporting.
func (m *CacheMetrics) GetStats() CacheMetrics {
	return CacheMetrics{
		Hits:      atomic.LoadInt64(&m.Hits),
		Misses:    atomic.LoadInt64(&m.Misses),
		Errors:    atomic.LoadInt64(&m.Errors),
		Sets:      atomic.LoadInt64(&m.Sets),
		StartTime: m.StartTime,
	}
}

// HitRate returns the percentage of lookups served from the cache.
func (m CacheMetrics) HitRate() float64 {
	total := m.Hits + m.Misses
	if total == 0 {
		return 0.0
	}
	return float64(m.Hits) / float64(total) * 100.0
}
