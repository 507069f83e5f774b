// Package log builds the process logger and carries request identifiers
// through context so every record logged with a request context is tagged.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aar-healthcare/medbot/internal/config"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
)

// NewLogger creates the logger described by cfg, writing to stdout.
func NewLogger(cfg config.AppConfig) *slog.Logger {
	return NewLoggerWithWriter(os.Stdout, cfg.LogFormat(), cfg.LogLevel())
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(w io.Writer, format config.LogFormat, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var inner slog.Handler
	switch format {
	case config.LogFormatJSON:
		inner = slog.NewJSONHandler(w, opts)
	default:
		inner = newTerminalHandler(w, opts)
	}
	return slog.New(contextHandler{inner: inner})
}

// Configure creates the logger for cfg and installs it as the slog default.
func Configure(cfg config.AppConfig) *slog.Logger {
	l := NewLogger(cfg)
	slog.SetDefault(l)
	return l
}

// ParseLevel maps a level name to a slog level. Unknown names mean INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// RequestID extracts the request ID from context.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// contextHandler appends request identifiers found in the record's context.
type contextHandler struct {
	inner slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := CorrelationID(ctx); id != "" {
			r.AddAttrs(slog.String(string(correlationIDKey), id))
		}
		if id := RequestID(ctx); id != "" {
			r.AddAttrs(slog.String(string(requestIDKey), id))
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{inner: h.inner.WithGroup(name)}
}
