package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type requestIDKey struct{}

// NewLogger initialises an slog.Logger writing to stdout with the provided
// level and format ("text" or "json").
func NewLogger(levelStr, format string) *slog.Logger {
	return New(os.Stdout, levelStr, format)
}

// New builds a logger on top of w.
func New(w io.Writer, levelStr, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(levelStr),
	}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithRequestID stores the webhook request id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored on ctx, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func parseLevel(levelStr string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
