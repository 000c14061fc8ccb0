package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"embed-service/internal/retry"
)

const (
	warmupText         = "warm-up"
	maxLoadBackoff     = 10 * time.Second
	defaultLoadBackoff = 500 * time.Millisecond
)

// Model is the loaded, read-only embedding model shared by every request.
// It checks that the backend returns one vector per text and that every
// vector has the model's dimensionality.
type Model struct {
	embedder  Embedder
	dims      int
	normalize bool
}

// LoadOptions controls how Load probes the backend.
type LoadOptions struct {
	// Dimensions is the expected output size; 0 accepts whatever the probe returns.
	Dimensions int
	Normalize  bool
	Attempts   int
	Backoff    time.Duration
	Log        *slog.Logger
}

// Load probes the embedder with a warm-up text, retrying while the backend
// comes up, and fixes the model's dimensionality from the result.
func Load(ctx context.Context, e Embedder, opts LoadOptions) (*Model, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultLoadBackoff
	}

	start := time.Now()
	var dims int
	err := retry.Do(ctx, opts.Attempts, opts.Backoff, maxLoadBackoff, func(attempt int) error {
		vecs, err := e.Embed(ctx, []string{warmupText})
		if err != nil {
			log.Warn("embedding model not ready", "model", e.Model(), "attempt", attempt+1, "err", err)
			return err
		}
		if len(vecs) != 1 {
			return fmt.Errorf("%w: got %d for 1 text", ErrCountMismatch, len(vecs))
		}
		dims = len(vecs[0])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", e.Model(), err)
	}
	if dims == 0 {
		return nil, fmt.Errorf("load model %s: %w: probe returned an empty vector", e.Model(), ErrDimensionMismatch)
	}
	if opts.Dimensions > 0 && opts.Dimensions != dims {
		return nil, fmt.Errorf("load model %s: %w: backend returns %d, configured %d",
			e.Model(), ErrDimensionMismatch, dims, opts.Dimensions)
	}

	log.Info("embedding model loaded",
		"model", e.Model(),
		"dimensions", dims,
		"normalize", opts.Normalize,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return NewModel(e, dims, opts.Normalize), nil
}

// NewModel wraps an embedder whose dimensionality is already known.
// dims <= 0 disables the dimension check.
func NewModel(e Embedder, dims int, normalize bool) *Model {
	return &Model{embedder: e, dims: dims, normalize: normalize}
}

func (m *Model) Model() string    { return m.embedder.Model() }
func (m *Model) Dimensions() int  { return m.dims }
func (m *Model) Normalized() bool { return m.normalize }

// Embed encodes the full batch in one backend call. Empty input returns an
// empty, non-nil slice without touching the backend.
func (m *Model) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return []Vector{}, nil
	}
	vecs, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d for %d texts", ErrCountMismatch, len(vecs), len(texts))
	}

	out := make([]Vector, len(vecs))
	for i, v := range vecs {
		if m.dims > 0 && len(v) != m.dims {
			return nil, fmt.Errorf("%w: text %d has %d, want %d", ErrDimensionMismatch, i, len(v), m.dims)
		}
		if m.normalize {
			v = Normalize(v)
		}
		out[i] = v
	}
	return out, nil
}
