package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is a fully local, deterministic embedder. It hashes word
// unigrams and bigrams into a fixed-dimension bag-of-features vector and
// L2-normalizes it. Quality is far below a sentence transformer, but it
// needs no network, no model files, and the same text always maps to the
// same vector, which keeps reindex passes reproducible.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder with the given dimension.
func NewHashEmbedder(dims int) (*HashEmbedder, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dims)
	}
	return &HashEmbedder{dims: dims}, nil
}

func (e *HashEmbedder) Name() string    { return fmt.Sprintf("hash-%d", e.dims) }
func (e *HashEmbedder) Dimensions() int { return e.dims }

func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = e.vector(text)
	}
	return results, nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dims)

	tokens := tokenize(text)
	for i, tok := range tokens {
		addFeature(vec, tok)
		if i+1 < len(tokens) {
			addFeature(vec, tok+" "+tokens[i+1])
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// addFeature hashes a token twice with different salts; the second hash
// picks the sign so unrelated tokens cancel rather than accumulate.
func addFeature(vec []float32, token string) {
	h := fnv.New64a()
	h.Write([]byte(token))
	idx := h.Sum64() % uint64(len(vec))

	h.Write([]byte{0x1f})
	if h.Sum64()%2 == 0 {
		vec[idx]++
	} else {
		vec[idx]--
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
