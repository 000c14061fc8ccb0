package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used when caching is disabled or Redis is unavailable: every lookup misses.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetEmbeddings reports a miss for every key.
func (c *NoOpCache) GetEmbeddings(ctx context.Context, keys []string) ([][]float32, error) {
	return make([][]float32, len(keys)), nil
}

func (c *NoOpCache) SetEmbeddings(ctx context.Context, entries map[string][]float32, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
