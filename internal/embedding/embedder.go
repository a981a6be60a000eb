package embedding

import "context"

// Embedder converts free text into a numeric vector representation.
// Indexing and querying must share the same Embedder instance so vectors
// live in one embedding space.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}
