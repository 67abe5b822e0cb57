// Package embedder adapts external embedding-generation services. This
// subsystem only ever consumes the resulting fixed-dimension vectors; it never
// computes embeddings itself.
package embedder

import "context"

// Dimensions of the reference deployment. The embedding store rejects vectors
// of any other size.
const Dimensions = 384

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
