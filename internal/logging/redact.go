// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Redacted replaces the value of a masked attribute.
const Redacted = "***"

// RedactingHandler masks attribute values by key before passing records on.
// Keys match case-insensitively at any group depth.
type RedactingHandler struct {
	handler slog.Handler
	keys    map[string]struct{}
}

// NewRedactingHandler wraps inner, masking attributes named by keys.
func NewRedactingHandler(inner slog.Handler, keys []string) *RedactingHandler {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}
	return &RedactingHandler{handler: inner, keys: set}
}

// Handle copies r with masked attributes and forwards it.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})
	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, out)
}

// Enabled defers to the wrapped handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs masks attrs before handing them to the wrapped handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.redact(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(masked), keys: h.keys}
}

// WithGroup returns a handler that still redacts inside the group.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name), keys: h.keys}
}

func (h *RedactingHandler) redact(a slog.Attr) slog.Attr {
	if _, ok := h.keys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, Redacted)
	}
	v := a.Value.Resolve()
	if m, ok := v.Any().(map[string]any); ok && v.Kind() == slog.KindAny {
		return slog.Any(a.Key, h.redactMap(m))
	}
	if v.Kind() != slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: v}
	}
	group := v.Group()
	masked := make([]any, len(group))
	for i, g := range group {
		masked[i] = h.redact(g)
	}
	return slog.Group(a.Key, masked...)
}

// redactMap covers oops error context, which errutil logs as a map.
func (h *RedactingHandler) redactMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, ok := h.keys[strings.ToLower(k)]; ok {
			out[k] = Redacted
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			v = h.redactMap(nested)
		}
		out[k] = v
	}
	return out
}
