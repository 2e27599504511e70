package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/olegiv/meetroom-go/internal/model"
)

type recordedEvent struct {
	level, category, message, actor string
	metadata                        map[string]string
}

type memorySink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (s *memorySink) LogEvent(_ context.Context, level, category, message, actor string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{level, category, message, actor, metadata})
	return nil
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func TestEventLogHandler_ForwardsWarnAndAbove(t *testing.T) {
	sink := &memorySink{}
	logger := slog.New(NewEventLogHandler(discardHandler{}, sink))

	logger.Info("records loaded")
	logger.Debug("noise")
	logger.Warn("stored collection is malformed", "category", model.EventCategoryStorage, "key", "meeting_docs")
	logger.Error("failed to persist collection", "error", "disk full")

	if len(sink.events) != 2 {
		t.Fatalf("forwarded %d events, want 2", len(sink.events))
	}

	warn := sink.events[0]
	if warn.level != model.EventLevelWarning || warn.category != model.EventCategoryStorage {
		t.Errorf("warn event = %+v", warn)
	}
	if warn.metadata["key"] != "meeting_docs" {
		t.Errorf("metadata = %v", warn.metadata)
	}
	if _, ok := warn.metadata["category"]; ok {
		t.Error("category should not be duplicated into metadata")
	}

	if sink.events[1].level != model.EventLevelError {
		t.Errorf("error event level = %q", sink.events[1].level)
	}
	if sink.events[1].category != model.EventCategoryStorage {
		t.Errorf("inferred category = %q, want storage", sink.events[1].category)
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	sink := &memorySink{}
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, sink, slog.LevelError))

	logger.Warn("summary generation failed")
	logger.Error("boom")

	if len(sink.events) != 1 || sink.events[0].message != "boom" {
		t.Errorf("events = %+v", sink.events)
	}
}

func TestEventLogHandler_WithAttrsCarriesActor(t *testing.T) {
	sink := &memorySink{}
	logger := slog.New(NewEventLogHandler(discardHandler{}, sink)).With("actor", "admin", "request_id", "r1")

	logger.Warn("login from new device")

	if len(sink.events) != 1 {
		t.Fatalf("events = %d", len(sink.events))
	}
	ev := sink.events[0]
	if ev.actor != "admin" || ev.category != model.EventCategoryAuth || ev.metadata["request_id"] != "r1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestInferCategory(t *testing.T) {
	tests := map[string]string{
		"admin login":              model.EventCategoryAuth,
		"summary generation slow":  model.EventCategorySummary,
		"attachment too large":     model.EventCategoryAttachment,
		"document order conflict":  model.EventCategoryDocument,
		"database locked":          model.EventCategoryStorage,
		"server shutting down now": model.EventCategorySystem,
	}
	for msg, want := range tests {
		if got := inferCategory(msg); got != want {
			t.Errorf("inferCategory(%q) = %q, want %q", msg, got, want)
		}
	}
}

func TestNew_Formats(t *testing.T) {
	var text, js bytes.Buffer

	New(&text, "debug", "text", nil).Debug("hello", "k", "v")
	if !strings.Contains(text.String(), "level=DEBUG") || !strings.Contains(text.String(), "k=v") {
		t.Errorf("text output = %q", text.String())
	}

	New(&js, "info", "json", nil).Debug("hidden")
	New(&js, "info", "json", nil).Info("shown")
	if strings.Contains(js.String(), "hidden") || !strings.Contains(js.String(), `"msg":"shown"`) {
		t.Errorf("json output = %q", js.String())
	}
}

func TestNew_WithSink(t *testing.T) {
	sink := &memorySink{}
	New(&bytes.Buffer{}, "info", "text", sink).Warn("logout failed")
	if len(sink.events) != 1 {
		t.Errorf("events = %d, want 1", len(sink.events))
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "warn": slog.LevelWarn,
		"warning": slog.LevelWarn, "error": slog.LevelError, "bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
