package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aar-healthcare/medbot/domain/search"
	"golang.org/x/sync/errgroup"
)

// Batcher splits texts into Capacity-sized requests and runs up to
// parallel of them at once. It adapts an Embedder to search.Embedder.
type Batcher struct {
	embedder Embedder
	parallel int
	logger   *slog.Logger
}

// NewBatcher creates a Batcher. parallel below 1 means one batch at a time.
func NewBatcher(embedder Embedder, parallel int, logger *slog.Logger) *Batcher {
	if parallel < 1 {
		parallel = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Batcher{embedder: embedder, parallel: parallel, logger: logger}
}

// Embed returns one vector per text, in input order.
func (b *Batcher) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	size := b.embedder.Capacity()
	if size < 1 {
		size = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallel)

	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		g.Go(func() error {
			resp, err := b.embedder.Embed(ctx, NewEmbeddingRequest(texts[start:end]))
			if err != nil {
				return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
			}
			vectors := resp.Embeddings()
			if len(vectors) != end-start {
				return fmt.Errorf("%w: batch %d-%d returned %d vectors", ErrEmptyResponse, start, end, len(vectors))
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	b.logger.Debug("embedded texts", slog.Int("count", len(texts)), slog.Int("batch_size", size))
	return out, nil
}

// Close closes the wrapped Embedder.
func (b *Batcher) Close() error {
	return b.embedder.Close()
}

var _ search.Embedder = (*Batcher)(nil)
