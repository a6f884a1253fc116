// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// Package logx provides the slog handler used by the demo command: one
// JSON object per record, errors optionally split to a second writer.
package logx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

type Handler struct {
	out    io.Writer
	err    io.Writer
	option *slog.HandlerOptions
	attrs  []slog.Attr
	group  string
	mu     *sync.Mutex
}

var _ slog.Handler = &Handler{}

type Option func(*Handler)

// WithErrorWriter sends records at slog.LevelError and above to w.
func WithErrorWriter(w io.Writer) Option {
	return func(h *Handler) {
		h.err = w
	}
}

func WithLevel(level slog.Leveler) Option {
	return func(h *Handler) {
		h.option.Level = level
	}
}

// New returns a handler writing to o; a nil o discards everything.
func New(o io.Writer, opts ...Option) *Handler {
	if o == nil {
		o = io.Discard
	}
	h := &Handler{
		out:    o,
		option: &slog.HandlerOptions{},
		mu:     new(sync.Mutex),
	}
	for _, v := range opts {
		v(h)
	}
	if h.err == nil {
		h.err = h.out
	}
	return h
}

func (h *Handler) clone() *Handler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	return &c
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	if h.out == io.Discard && h.err == io.Discard {
		return false
	}
	lvl := slog.LevelInfo
	if h.option.Level != nil {
		lvl = h.option.Level.Level()
	}
	return l >= lvl
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Enabled(ctx, r.Level) {
		return nil
	}
	msg := map[string]any{
		"msg":   r.Message,
		"level": r.Level.String(),
	}
	if !r.Time.IsZero() {
		msg["time"] = r.Time.Format(time.RFC3339Nano)
	}
	for _, a := range h.attrs {
		msg[a.Key] = value(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		msg[h.key(a.Key)] = value(a.Value)
		return true
	})

	w := h.out
	if r.Level >= slog.LevelError {
		w = h.err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(msg)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		a.Key = h.key(a.Key)
		c.attrs = append(c.attrs, a)
	}
	return c
}

// WithGroup qualifies the keys of later attributes as "name.key".
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.group = h.key(name)
	return c
}

func (h *Handler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

func value(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindGroup:
		m := make(map[string]any)
		for _, a := range v.Group() {
			m[a.Key] = value(a.Value)
		}
		return m
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.Any()
}
