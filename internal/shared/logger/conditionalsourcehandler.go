package logger

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
)

type conditionalSourceHandler struct {
	next   slog.Handler
	levels []slog.Level
}

// NewConditionalSourceHandler wraps next so that records at one of the given
// levels carry a source attribute. next should be built with AddSource off.
func NewConditionalSourceHandler(next slog.Handler, levels ...slog.Level) slog.Handler {
	return &conditionalSourceHandler{
		next:   next,
		levels: slices.Clone(levels),
	}
}

func (h *conditionalSourceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *conditionalSourceHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.PC != 0 && slices.Contains(h.levels, r.Level) {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		r.AddAttrs(slog.Any(slog.SourceKey, &slog.Source{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		}))
	}
	return h.next.Handle(ctx, r)
}

func (h *conditionalSourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &conditionalSourceHandler{next: h.next.WithAttrs(attrs), levels: h.levels}
}

func (h *conditionalSourceHandler) WithGroup(name string) slog.Handler {
	return &conditionalSourceHandler{next: h.next.WithGroup(name), levels: h.levels}
}
