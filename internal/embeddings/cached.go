package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"embed-service/internal/cache"
)

// CachedEmbedder wraps an Embedder with a content-addressed result cache.
// Cache errors are logged and treated as misses.
type CachedEmbedder struct {
	inner Embedder
	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger
}

func NewCachedEmbedder(inner Embedder, c cache.Cache, ttl time.Duration, log *slog.Logger) *CachedEmbedder {
	if log == nil {
		log = slog.Default()
	}
	return &CachedEmbedder{inner: inner, cache: c, ttl: ttl, log: log}
}

func (c *CachedEmbedder) Model() string { return c.inner.Model() }

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return []Vector{}, nil
	}

	model := c.inner.Model()
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = cacheKey(model, text)
	}

	hits, err := c.cache.GetEmbeddings(ctx, keys)
	if err != nil {
		c.log.Warn("embedding cache lookup failed", "err", err)
		hits = nil
	}

	results := make([]Vector, len(texts))
	var misses []int // indices of texts not found in cache
	for i := range texts {
		if i < len(hits) && hits[i] != nil {
			results[i] = Vector(hits[i])
			continue
		}
		misses = append(misses, i)
	}
	if len(misses) == 0 {
		c.log.Debug("embedding cache hit", "texts", len(texts))
		return results, nil
	}

	missTexts := make([]string, len(misses))
	for i, idx := range misses {
		missTexts[i] = texts[idx]
	}
	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d for %d texts", ErrCountMismatch, len(vecs), len(missTexts))
	}

	entries := make(map[string][]float32, len(misses))
	for i, idx := range misses {
		results[idx] = vecs[i]
		entries[keys[idx]] = vecs[i]
	}
	if err := c.cache.SetEmbeddings(ctx, entries, c.ttl); err != nil {
		c.log.Warn("embedding cache store failed", "err", err)
	}
	c.log.Debug("embedding cache", "hits", len(texts)-len(misses), "misses", len(misses))
	return results, nil
}

// cacheKey scopes the content hash by model so vectors never leak across models.
func cacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
