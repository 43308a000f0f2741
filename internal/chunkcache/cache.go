// Package chunkcache caches decoded chunks by chunk index.
package chunkcache

import (
	"sync/atomic"

	"github.com/discochess/lazio/internal/stats"
)

// Strategy defines the interface for cache eviction strategies.
type Strategy interface {
	Get(key int) ([]byte, bool)
	Add(key int, value []byte) bool
	Purge()
	Len() int
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int // Current number of entries
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Cache holds decoded chunks. A nil strategy disables caching.
type Cache struct {
	strategy  Strategy
	collector stats.Collector

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache with the given eviction strategy.
// The collector is optional; if nil, a no-op collector is used.
func New(strategy Strategy, collector stats.Collector) *Cache {
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Cache{
		strategy:  strategy,
		collector: collector,
	}
}

// Get returns the decoded chunk at index.
func (c *Cache) Get(index int) ([]byte, bool) {
	if c.strategy != nil {
		if val, ok := c.strategy.Get(index); ok {
			c.hits.Add(1)
			c.collector.IncCounter(stats.MetricChunkCacheHits, 1)
			return val, true
		}
	}
	c.misses.Add(1)
	c.collector.IncCounter(stats.MetricChunkCacheMisses, 1)
	return nil, false
}

// Set stores the decoded chunk at index.
func (c *Cache) Set(index int, data []byte) {
	if c.strategy == nil {
		return
	}
	c.strategy.Add(index, data)
	c.collector.SetGauge(stats.MetricChunkCacheSize, int64(c.strategy.Len()))
}

// Reset drops every entry. Chunk indexes are only meaningful for one
// stream, so the cache is reset whenever the stream changes.
func (c *Cache) Reset() {
	if c.strategy == nil {
		return
	}
	c.strategy.Purge()
	c.collector.SetGauge(stats.MetricChunkCacheSize, 0)
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	s := Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
	if c.strategy != nil {
		s.Size = c.strategy.Len()
	}
	return s
}
