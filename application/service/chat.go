// Package service provides application layer services that orchestrate domain operations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/aar-healthcare/medbot/domain/chat"
)

// Chat answers user messages through the response cascade.
type Chat struct {
	selector *chat.Selector
	closed   *atomic.Bool
	logger   *slog.Logger
}

// NewChat creates a new Chat service.
func NewChat(selector *chat.Selector, closed *atomic.Bool, logger *slog.Logger) *Chat {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chat{selector: selector, closed: closed, logger: logger}
}

// Answer runs the cascade and reports which tier answered. A blank message
// returns ErrEmptyMessage.
func (c *Chat) Answer(ctx context.Context, message string) (chat.Answer, error) {
	if c.closed != nil && c.closed.Load() {
		return chat.Answer{}, ErrClientClosed
	}
	if strings.TrimSpace(message) == "" {
		return chat.Answer{}, ErrEmptyMessage
	}
	return c.selector.Select(ctx, message)
}

// Reply returns the text shown to the user. It never fails: a blank message
// gets chat.EmptyPrompt and any error gets chat.ErrorApology.
func (c *Chat) Reply(ctx context.Context, message string) string {
	answer, err := c.Answer(ctx, message)
	switch {
	case err == nil:
		return answer.Text()
	case errors.Is(err, ErrEmptyMessage):
		return chat.EmptyPrompt
	default:
		c.logger.Error("chat failed", slog.String("error", err.Error()))
		return chat.ErrorApology
	}
}
