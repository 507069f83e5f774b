// Package provider turns text into embedding vectors, either with a local
// ONNX model through hugot or through an OpenAI-compatible HTTP endpoint.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse indicates a provider answered with no vectors.
var ErrEmptyResponse = errors.New("empty embedding response")

// EmbeddingRequest is a batch of texts to embed.
type EmbeddingRequest struct {
	texts []string
}

// NewEmbeddingRequest creates a new EmbeddingRequest.
func NewEmbeddingRequest(texts []string) EmbeddingRequest {
	return EmbeddingRequest{texts: texts}
}

// Texts returns the texts to embed.
func (r EmbeddingRequest) Texts() []string { return r.texts }

// Usage reports token consumption where the provider exposes it.
type Usage struct {
	promptTokens int
	totalTokens  int
}

// NewUsage creates a new Usage.
func NewUsage(promptTokens, totalTokens int) Usage {
	return Usage{promptTokens: promptTokens, totalTokens: totalTokens}
}

// PromptTokens returns the number of input tokens.
func (u Usage) PromptTokens() int { return u.promptTokens }

// TotalTokens returns the number of tokens billed.
func (u Usage) TotalTokens() int { return u.totalTokens }

// EmbeddingResponse holds one vector per request text, in request order.
type EmbeddingResponse struct {
	embeddings [][]float64
	usage      Usage
}

// NewEmbeddingResponse creates a new EmbeddingResponse.
func NewEmbeddingResponse(embeddings [][]float64, usage Usage) EmbeddingResponse {
	return EmbeddingResponse{embeddings: embeddings, usage: usage}
}

// Embeddings returns the vectors.
func (r EmbeddingResponse) Embeddings() [][]float64 { return r.embeddings }

// Usage returns token usage.
func (r EmbeddingResponse) Usage() Usage { return r.usage }

// Embedder embeds at most Capacity texts per call.
type Embedder interface {
	Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error)
	Capacity() int
	Close() error
}

// ProviderError describes a failed provider call.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a new ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		cause:      cause,
	}
}

// Operation returns the failed operation name.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the HTTP status, or 0 when there was none.
func (e *ProviderError) StatusCode() int { return e.statusCode }

func (e *ProviderError) Error() string {
	if e.statusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.operation, e.statusCode, e.message)
	}
	return fmt.Sprintf("%s failed: %s", e.operation, e.message)
}

func (e *ProviderError) Unwrap() error { return e.cause }
