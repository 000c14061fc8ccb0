package embeddings

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic feature-hashing embedder for offline
// development and tests. Vectors are unit-normalized bags of hashed tokens
// and carry no learned semantics.
type HashEmbedder struct {
	name string
	dims int
}

// DefaultHashDimensions is used when NewHashEmbedder gets no dimensionality.
const DefaultHashDimensions = 384

// NewHashEmbedder returns a HashEmbedder producing dims-length vectors.
func NewHashEmbedder(name string, dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &HashEmbedder{name: name, dims: dims}
}

func (h *HashEmbedder) Model() string { return h.name }

func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embedOne(text)
	}
	return out, nil
}

func (h *HashEmbedder) embedOne(text string) Vector {
	vec := make(Vector, h.dims)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		f := fnv.New64a()
		_, _ = f.Write([]byte(tok))
		sum := f.Sum64()
		idx := int(sum % uint64(h.dims))
		// top bit picks the sign so collisions tend to cancel
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	return Normalize(vec)
}
