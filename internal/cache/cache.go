package cache

import (
	"context"
	"time"
)

// Cache stores embedding vectors by content key.
type Cache interface {
	// GetEmbeddings looks up keys in order. A nil entry is a miss.
	GetEmbeddings(ctx context.Context, keys []string) ([][]float32, error)

	// SetEmbeddings stores vectors with TTL. A zero TTL keeps them forever.
	SetEmbeddings(ctx context.Context, entries map[string][]float32, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}
