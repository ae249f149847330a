package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	config "github.com/maheshrc27/followflow/configs"
)

// New constructs a slog.Logger writing to stdout, with records at Error and
// above going to stderr.
func New(cfg config.Logging) (*slog.Logger, error) {
	return NewWithWriters(cfg, os.Stdout, os.Stderr)
}

// NewWithWriter constructs a slog.Logger writing every record to w.
func NewWithWriter(cfg config.Logging, w io.Writer) (*slog.Logger, error) {
	h, err := newHandler(cfg, w)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

// NewWithWriters constructs a slog.Logger that writes records below Error
// to out and the rest to errOut.
func NewWithWriters(cfg config.Logging, out, errOut io.Writer) (*slog.Logger, error) {
	outHandler, err := newHandler(cfg, out)
	if err != nil {
		return nil, err
	}
	errHandler, err := newHandler(cfg, errOut)
	if err != nil {
		return nil, err
	}
	return slog.New(&splitHandler{out: outHandler, err: errHandler}), nil
}

func newHandler(cfg config.Logging, w io.Writer) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}

type splitHandler struct {
	out slog.Handler
	err slog.Handler
}

func (h *splitHandler) pick(level slog.Level) slog.Handler {
	if level >= slog.LevelError {
		return h.err
	}
	return h.out
}

func (h *splitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.pick(level).Enabled(ctx, level)
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.pick(r.Level).Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{out: h.out.WithAttrs(attrs), err: h.err.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{out: h.out.WithGroup(name), err: h.err.WithGroup(name)}
}
