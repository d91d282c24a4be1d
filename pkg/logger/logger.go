package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5/middleware"
)

// Handler is a slog handler that enriches records with the request id
// when one is present in the context.
type Handler struct {
	slog.Handler
}

// NewHandler creates a new Handler writing JSON records to w.
// A nil writer defaults to stdout.
func NewHandler(w io.Writer) *Handler {
	if w == nil {
		w = os.Stdout
	}

	return &Handler{
		Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}),
	}
}

// Handle adds the chi request id to the record if the context carries one.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		record.AddAttrs(slog.String("request_id", reqID))
	}

	return h.Handler.Handle(ctx, record)
}

// WithAttrs returns a new Handler with the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup returns a new Handler with the given group.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}
