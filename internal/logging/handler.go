// Package logging provides a custom slog handler that integrates with the
// audit event log. It forwards logs at WARN level and above to an EventSink.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/olegiv/meetroom-go/internal/model"
)

// EventSink receives forwarded log records as audit events.
// service.EventService satisfies it.
type EventSink interface {
	LogEvent(ctx context.Context, level, category, message, actor string, metadata map[string]string) error
}

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the event log.
type EventLogHandler struct {
	inner slog.Handler
	sink  EventSink
	level slog.Level // minimum level forwarded to the sink
	attrs []slog.Attr
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
func NewEventLogHandler(inner slog.Handler, sink EventSink) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, sink, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, sink EventSink, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, sink: sink, level: level}
}

// New builds the application logger: a text handler in development, JSON
// otherwise, with WARN+ records also sent to sink when it is non-nil.
func New(w io.Writer, level, format string, sink EventSink) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	if sink != nil {
		h = NewEventLogHandler(h, sink)
	}
	return slog.New(h)
}

// ParseLevel maps debug/info/warn/error to a slog level; unknown values are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level && h.sink != nil {
		h.forward(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner: h.inner.WithAttrs(attrs),
		sink:  h.sink,
		level: h.level,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner: h.inner.WithGroup(name),
		sink:  h.sink,
		level: h.level,
		attrs: h.attrs,
	}
}

func (h *EventLogHandler) forward(ctx context.Context, r slog.Record) {
	var category, actor string
	metadata := make(map[string]string)

	collect := func(a slog.Attr) bool {
		switch a.Key {
		case "category":
			category = a.Value.String()
		case "actor":
			actor = a.Value.String()
		default:
			metadata[a.Key] = a.Value.String()
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if category == "" {
		category = inferCategory(r.Message)
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	// The event is recorded even if the request that logged it was cancelled.
	_ = h.sink.LogEvent(context.WithoutCancel(ctx), eventLevel(r.Level), category, r.Message, actor, metadata)
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "logout"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "summary") || strings.Contains(msg, "summariz"):
		return model.EventCategorySummary
	case strings.Contains(msg, "attachment"):
		return model.EventCategoryAttachment
	case strings.Contains(msg, "document"):
		return model.EventCategoryDocument
	case strings.Contains(msg, "storage") || strings.Contains(msg, "persist") || strings.Contains(msg, "database"):
		return model.EventCategoryStorage
	default:
		return model.EventCategorySystem
	}
}
