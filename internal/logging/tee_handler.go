package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// teeHandler copies each record to every member whose level admits it. In
// practice the members are the console handler and the JSON log file.
type teeHandler struct {
	members []slog.Handler
}

func newTeeHandler(handlers ...slog.Handler) slog.Handler {
	members := slices.DeleteFunc(slices.Clone(handlers), func(h slog.Handler) bool { return h == nil })
	switch len(members) {
	case 0:
		return NoopHandler{}
	case 1:
		return members[0]
	}
	return &teeHandler{members: members}
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(t.members, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

// Handle gives every member its own clone of the record and reports all
// member errors together.
func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, member := range t.members {
		if member.Enabled(ctx, record.Level) {
			errs = append(errs, member.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t *teeHandler) derive(fn func(slog.Handler) slog.Handler) *teeHandler {
	next := make([]slog.Handler, len(t.members))
	for i, member := range t.members {
		next[i] = fn(member)
	}
	return &teeHandler{members: next}
}

// TeeHandler duplicates log output to each non-nil handler.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	return newTeeHandler(handlers...)
}
