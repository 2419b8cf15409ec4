package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"kycdesk/pkg/requestcontext"
)

// contextHandler stamps the authenticated admin onto every record. Request IDs
// are logged explicitly at call sites.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	if v := requestcontext.UserID(ctx); v != "" {
		record.Add("admin_user_id", v)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

// New returns a JSON logger on stdout and installs it as the slog default.
func New(level string) *slog.Logger {
	l := NewWithWriter(os.Stdout, level)
	slog.SetDefault(l)
	return l
}

// NewWithWriter builds the same logger over an arbitrary writer.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(&contextHandler{slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
