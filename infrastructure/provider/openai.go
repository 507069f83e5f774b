package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const remoteBatchDefault = 16

// errCountMismatch means the endpoint returned fewer vectors than texts.
// Gateways do this under load, so it is retried.
var errCountMismatch = errors.New("embedding count mismatch")

// OpenAIConfig configures an OpenAI-compatible embedding endpoint.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
	BatchSize     int
	// CacheDir, when set, stores successful responses on disk.
	CacheDir string
}

// OpenAIEmbedding embeds texts through an OpenAI-compatible /embeddings API.
// It lets medbot run without a local model, for example against a text
// embeddings inference server hosting BioBERT.
type OpenAIEmbedding struct {
	client        *openai.Client
	model         string
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	batchSize     int
}

// NewOpenAIEmbedding creates an OpenAIEmbedding from cfg.
func NewOpenAIEmbedding(cfg OpenAIConfig) *OpenAIEmbedding {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	var transport http.RoundTripper
	if cfg.CacheDir != "" {
		transport = NewCachingTransport(cfg.CacheDir, nil)
	}
	if cfg.Timeout > 0 || transport != nil {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout, Transport: transport}
	}

	e := &OpenAIEmbedding{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         cfg.Model,
		maxRetries:    cfg.MaxRetries,
		initialDelay:  cfg.InitialDelay,
		backoffFactor: cfg.BackoffFactor,
		batchSize:     cfg.BatchSize,
	}
	if e.initialDelay <= 0 {
		e.initialDelay = 2 * time.Second
	}
	if e.backoffFactor < 1 {
		e.backoffFactor = 2.0
	}
	if e.batchSize <= 0 {
		e.batchSize = remoteBatchDefault
	}
	return e
}

// Capacity returns the maximum number of texts per Embed call.
func (e *OpenAIEmbedding) Capacity() int { return e.batchSize }

// Close is a no-op.
func (e *OpenAIEmbedding) Close() error { return nil }

// Embed sends req's texts in one API call.
func (e *OpenAIEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, Usage{}), nil
	}

	request := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	err := e.withRetry(ctx, func() error {
		var err error
		resp, err = e.client.CreateEmbeddings(ctx, request)
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		return EmbeddingResponse{}, wrapOpenAIError(err)
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return EmbeddingResponse{}, NewProviderError("embedding", 0, fmt.Sprintf("index %d out of range", d.Index), nil)
		}
		row := make([]float64, len(d.Embedding))
		for j, v := range d.Embedding {
			row[j] = float64(v)
		}
		vectors[d.Index] = row
	}

	return NewEmbeddingResponse(vectors, NewUsage(resp.Usage.PromptTokens, resp.Usage.TotalTokens)), nil
}

// withRetry runs fn with exponential backoff while the error is retryable.
func (e *OpenAIEmbedding) withRetry(ctx context.Context, fn func() error) error {
	delay := e.initialDelay
	var last error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		last = fn()
		if last == nil {
			return nil
		}
		if !retryable(last) {
			return last
		}

		if attempt < e.maxRetries {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay = time.Duration(float64(delay) * e.backoffFactor)
		}
	}

	return fmt.Errorf("max retries exceeded: %w", last)
}

func retryable(err error) bool {
	if errors.Is(err, errCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 0 || reqErr.HTTPStatusCode >= 500 || reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}

	return false
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError("embedding", apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError("embedding", reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	return NewProviderError("embedding", 0, err.Error(), err)
}

var _ Embedder = (*OpenAIEmbedding)(nil)
