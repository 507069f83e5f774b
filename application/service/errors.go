package service

import "errors"

var (
	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("medbot: client is closed")

	// ErrEmptyMessage indicates a blank chat message.
	ErrEmptyMessage = errors.New("medbot: empty message")
)
