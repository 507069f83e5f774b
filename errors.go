package medbot

import (
	"errors"

	"github.com/aar-healthcare/medbot/application/service"
)

var (
	// ErrNoDatabase indicates no database option was supplied.
	ErrNoDatabase = errors.New("medbot: no database configured")

	// ErrNoEmbeddingModel indicates neither a local model nor an embedding
	// endpoint is available.
	ErrNoEmbeddingModel = errors.New("medbot: no embedding model available")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = service.ErrClientClosed
)
