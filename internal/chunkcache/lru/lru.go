// Package lru implements an LRU eviction strategy for decoded chunks.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/lazio/internal/chunkcache"
)

// Compile-time check that Strategy implements chunkcache.Strategy.
var _ chunkcache.Strategy = (*Strategy)(nil)

// Strategy evicts the least recently used chunk.
type Strategy struct {
	cache *lru.Cache[int, []byte]
}

// New creates an LRU strategy holding at most capacity chunks.
func New(capacity int) (*Strategy, error) {
	c, err := lru.New[int, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &Strategy{cache: c}, nil
}

// Get retrieves a chunk by index and marks it recently used.
func (s *Strategy) Get(key int) ([]byte, bool) {
	return s.cache.Get(key)
}

// Add stores a chunk. It reports whether an entry was evicted.
func (s *Strategy) Add(key int, value []byte) bool {
	return s.cache.Add(key, value)
}

// Purge removes every chunk.
func (s *Strategy) Purge() {
	s.cache.Purge()
}

// Len returns the number of cached chunks.
func (s *Strategy) Len() int {
	return s.cache.Len()
}
