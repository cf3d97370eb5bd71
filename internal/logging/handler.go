// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that copies security-relevant
// warnings into the security log.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/3ddreamcrafts/dreamcrafts/internal/audit"
)

// Categories that are always forwarded.
const (
	CategoryAuth     = "auth"
	CategorySecurity = "security"
)

var messageKeywords = []string{"login", "csrf", "upload"}

// SecurityLogHandler wraps another handler and also records WARN and ERROR
// records about authentication or request security in security_log.
type SecurityLogHandler struct {
	inner    slog.Handler
	recorder *audit.Recorder
	level    slog.Level
	attrs    []slog.Attr
}

// NewSecurityLogHandler wraps inner. The recorder must not log through the
// returned handler.
func NewSecurityLogHandler(inner slog.Handler, rec *audit.Recorder) *SecurityLogHandler {
	return &SecurityLogHandler{inner: inner, recorder: rec, level: slog.LevelWarn}
}

// Enabled implements slog.Handler.
func (h *SecurityLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecurityLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level && h.recorder != nil {
		if fields, ok := h.securityFields(r); ok {
			// The entry must survive a cancelled request.
			_ = h.recorder.Record(context.WithoutCancel(ctx), toEvent(r, fields))
		}
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *SecurityLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &SecurityLogHandler{inner: h.inner.WithAttrs(attrs), recorder: h.recorder, level: h.level, attrs: merged}
}

// WithGroup implements slog.Handler. Grouped attributes are still flattened
// into the security log details.
func (h *SecurityLogHandler) WithGroup(name string) slog.Handler {
	return &SecurityLogHandler{inner: h.inner.WithGroup(name), recorder: h.recorder, level: h.level, attrs: h.attrs}
}

// securityFields collects the record's attributes and reports whether the
// record belongs in the security log.
func (h *SecurityLogHandler) securityFields(r slog.Record) (map[string]string, bool) {
	fields := make(map[string]string, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		addAttr(fields, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fields, "", a)
		return true
	})

	switch fields["category"] {
	case CategoryAuth, CategorySecurity:
		return fields, true
	}
	msg := strings.ToLower(r.Message)
	for _, kw := range messageKeywords {
		if strings.Contains(msg, kw) {
			return fields, true
		}
	}
	return nil, false
}

func addAttr(fields map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addAttr(fields, key, ga)
		}
		return
	}
	fields[key] = a.Value.String()
}

func toEvent(r slog.Record, fields map[string]string) audit.Event {
	e := audit.Event{
		Type:      audit.LogWarning,
		IP:        fields["ip"],
		Username:  fields["username"],
		UserAgent: fields["user_agent"],
		Details:   map[string]string{"message": r.Message, "level": r.Level.String()},
	}
	for k, v := range fields {
		switch k {
		case "ip", "username", "user_agent":
			continue
		}
		e.Details[k] = v
	}
	return e
}

// New builds the application logger: a text handler on stderr at level,
// wrapped by a SecurityLogHandler when rec is not nil.
func New(level slog.Level, rec *audit.Recorder) *slog.Logger {
	var h slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if rec != nil {
		h = NewSecurityLogHandler(h, rec)
	}
	return slog.New(h)
}

// ParseLevel maps a config string to a slog level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
