// Copyright 2026 The Tether Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tether-foundation/tether/lib/codec"
)

// Event is one diagnostic record in a trace stream. Events are encoded
// as a CBOR sequence: one deterministic-CBOR item per record, no outer
// framing, so a stream can be appended to and decoded incrementally.
type Event struct {
	// Time is the record's timestamp. Zero when the record carried
	// none.
	Time time.Time `cbor:"time"`

	// Level is the slog level string (DEBUG, INFO, WARN, ERROR).
	Level string `cbor:"level"`

	// Message is the log message.
	Message string `cbor:"message"`

	// Attrs holds the record's attributes, group-qualified with dots.
	Attrs map[string]any `cbor:"attrs,omitempty"`
}

// Handler is a slog.Handler that appends CBOR events to a writer,
// typically a file opened with O_APPEND. It is the structured
// replacement for the loader's historical raw-file debug logging: the
// production loader stays silent by default, and a debug deployment
// hands the loader a logger built on this handler.
type Handler struct {
	mu      *sync.Mutex
	encoder *codec.Encoder
	level   slog.Leveler

	// attrs and group accumulate WithAttrs/WithGroup state. Clones
	// share mu and encoder so concurrent Handle calls on derived
	// handlers still serialize their writes.
	attrs []slog.Attr
	group string
}

// NewHandler returns a Handler writing to w. Records below level are
// dropped; nil means slog.LevelDebug (a trace stream exists to capture
// everything).
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelDebug
	}
	return &Handler{
		mu:      &sync.Mutex{},
		encoder: codec.NewEncoder(w),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler. Each record becomes one CBOR item.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	event := Event{
		Time:    record.Time,
		Level:   record.Level.String(),
		Message: record.Message,
	}

	attrs := make(map[string]any)
	// Attrs accumulated via WithAttrs were qualified with the group
	// prefix in effect when they were added, so no prefix here.
	for _, attr := range h.attrs {
		addAttr(attrs, "", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		addAttr(attrs, h.group, attr)
		return true
	})
	if len(attrs) > 0 {
		event.Attrs = attrs
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(event)
}

// WithAttrs implements slog.Handler. Added attrs are qualified with
// the current group prefix immediately; a later WithGroup must not
// re-qualify them.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	qualified := append([]slog.Attr(nil), h.attrs...)
	for _, attr := range attrs {
		attr.Key = h.group + attr.Key
		qualified = append(qualified, attr)
	}
	clone.attrs = qualified
	return &clone
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}

// addAttr flattens attr into the event map under a dotted,
// group-qualified key.
func addAttr(attrs map[string]any, prefix string, attr slog.Attr) {
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		for _, nested := range value.Group() {
			addAttr(attrs, prefix+attr.Key+".", nested)
		}
		return
	}
	attrs[prefix+attr.Key] = attrValue(value)
}

// attrValue converts a resolved slog value into something CBOR can
// encode faithfully. Errors become their message string; everything
// else passes through.
func attrValue(value slog.Value) any {
	v := value.Any()
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}
