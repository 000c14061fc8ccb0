package embeddings

import (
	"context"
	"errors"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

var (
	ErrCountMismatch     = errors.New("embedding count does not match input count")
	ErrDimensionMismatch = errors.New("embedding dimension does not match model")
	ErrEmptyModel        = errors.New("embedding model name required")
)

// Embedder turns a batch of texts into vectors, one per text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]Vector, error)
	// Model names the pretrained model behind the embedder.
	Model() string
}
