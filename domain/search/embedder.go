// Package search provides the vector primitives shared by the knowledge
// and keyword tiers of the response cascade.
package search

import (
	"context"
	"fmt"
)

// Embedder converts text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, embedder Embedder, text string) ([]float64, error) {
	vectors, err := embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed: got %d vectors for 1 text", len(vectors))
	}
	return vectors[0], nil
}
