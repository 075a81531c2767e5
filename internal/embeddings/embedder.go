package embeddings

import "context"

// Embedder produces dense vectors for text. Implementations must be
// deterministic: identical input yields an identical vector, and the
// dimension is fixed for the embedder's lifetime.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}
