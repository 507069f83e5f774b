package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lengthEmbedder returns {len(text)} for every text and records the batch
// sizes and peak concurrency it sees.
type lengthEmbedder struct {
	capacity int
	delay    time.Duration
	failOn   string

	mu       sync.Mutex
	batches  []int
	inFlight atomic.Int64
	peak     atomic.Int64
	closed   bool
}

func (e *lengthEmbedder) Capacity() int { return e.capacity }

func (e *lengthEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *lengthEmbedder) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}

	e.mu.Lock()
	e.batches = append(e.batches, len(req.Texts()))
	e.mu.Unlock()

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return EmbeddingResponse{}, ctx.Err()
		}
	}

	vectors := make([][]float64, len(req.Texts()))
	for i, text := range req.Texts() {
		if text == e.failOn {
			return EmbeddingResponse{}, errors.New("model exploded")
		}
		vectors[i] = []float64{float64(len(text))}
	}
	return NewEmbeddingResponse(vectors, Usage{}), nil
}

func TestBatcher_PreservesOrder(t *testing.T) {
	inner := &lengthEmbedder{capacity: 2}
	b := NewBatcher(inner, 3, nil)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	got, err := b.Embed(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, got, len(texts))
	for i, text := range texts {
		assert.Equal(t, []float64{float64(len(text))}, got[i])
	}
	assert.ElementsMatch(t, []int{2, 2, 1}, inner.batches)
}

func TestBatcher_Empty(t *testing.T) {
	inner := &lengthEmbedder{capacity: 2}
	got, err := NewBatcher(inner, 1, nil).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, inner.batches)
}

func TestBatcher_LimitsParallelism(t *testing.T) {
	inner := &lengthEmbedder{capacity: 1, delay: 10 * time.Millisecond}
	b := NewBatcher(inner, 2, nil)

	_, err := b.Embed(context.Background(), []string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)

	assert.LessOrEqual(t, inner.peak.Load(), int64(2))
	assert.Len(t, inner.batches, 6)
}

func TestBatcher_PropagatesErrors(t *testing.T) {
	inner := &lengthEmbedder{capacity: 2, failOn: "bad"}
	b := NewBatcher(inner, 2, nil)

	_, err := b.Embed(context.Background(), []string{"ok", "fine", "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model exploded")
}

func TestBatcher_ZeroCapacityMeansOne(t *testing.T) {
	inner := &lengthEmbedder{capacity: 0}
	got, err := NewBatcher(inner, 0, nil).Embed(context.Background(), []string{"x", "yy"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []int{1, 1}, inner.batches)
}

// shortEmbedder drops the last vector of every batch.
type shortEmbedder struct{ lengthEmbedder }

func (e *shortEmbedder) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	resp, err := e.lengthEmbedder.Embed(ctx, req)
	if err != nil {
		return resp, err
	}
	vectors := resp.Embeddings()
	return NewEmbeddingResponse(vectors[:len(vectors)-1], Usage{}), nil
}

func TestBatcher_ShortResponse(t *testing.T) {
	inner := &shortEmbedder{lengthEmbedder{capacity: 4}}
	_, err := NewBatcher(inner, 1, nil).Embed(context.Background(), []string{"a", "b"})
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestBatcher_Close(t *testing.T) {
	inner := &lengthEmbedder{capacity: 1}
	require.NoError(t, NewBatcher(inner, 1, nil).Close())
	assert.True(t, inner.closed)
}
