package domain

import "context"

// Embedder converts text into a fixed-length embedding vector.
// Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
