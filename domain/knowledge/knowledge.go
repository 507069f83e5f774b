// Package knowledge defines the embedded medical knowledge base.
package knowledge

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch indicates texts and embeddings do not pair up.
	ErrLengthMismatch = errors.New("knowledge texts and embeddings differ in length")

	// ErrNotFound indicates no persisted knowledge base exists yet.
	ErrNotFound = errors.New("knowledge base not found")
)

// Chunk is a knowledge paragraph and its embedding. Chunks are identified
// only by their position in the Base.
type Chunk struct {
	text      string
	embedding []float64
}

// Text returns the paragraph.
func (c Chunk) Text() string { return c.text }

// Embedding returns the embedding vector.
func (c Chunk) Embedding() []float64 { return c.embedding }

// Base is an immutable list of knowledge texts paired with their
// embeddings. Embedding i belongs to text i.
type Base struct {
	texts      []string
	embeddings [][]float64
}

// NewBase pairs texts with embeddings. Both slices are copied.
func NewBase(texts []string, embeddings [][]float64) (Base, error) {
	if len(texts) != len(embeddings) {
		return Base{}, fmt.Errorf("%w: %d texts, %d embeddings", ErrLengthMismatch, len(texts), len(embeddings))
	}

	dim := -1
	b := Base{
		texts:      make([]string, len(texts)),
		embeddings: make([][]float64, len(embeddings)),
	}
	copy(b.texts, texts)
	for i, e := range embeddings {
		if dim == -1 {
			dim = len(e)
		} else if len(e) != dim {
			return Base{}, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(e), dim)
		}
		vec := make([]float64, len(e))
		copy(vec, e)
		b.embeddings[i] = vec
	}
	return b, nil
}

// Len returns the number of chunks.
func (b Base) Len() int { return len(b.texts) }

// Dimension returns the embedding width, or 0 for an empty base.
func (b Base) Dimension() int {
	if len(b.embeddings) == 0 {
		return 0
	}
	return len(b.embeddings[0])
}

// Texts returns a copy of the texts.
func (b Base) Texts() []string {
	result := make([]string, len(b.texts))
	copy(result, b.texts)
	return result
}

// Embeddings returns the embedding matrix. Callers must not modify it.
func (b Base) Embeddings() [][]float64 { return b.embeddings }

// Chunk returns the chunk at position i.
func (b Base) Chunk(i int) Chunk {
	return Chunk{text: b.texts[i], embedding: b.embeddings[i]}
}

// Store persists a knowledge base.
type Store interface {
	// Load returns the persisted base, or ErrNotFound.
	Load(ctx context.Context) (Base, error)
	// Save persists the base, replacing any previous one.
	Save(ctx context.Context, base Base) error
}
