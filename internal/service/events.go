// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the board's business logic: the document editor
// workflow, attachment management and the audit event log.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/store"
)

// EventsKey is the storage key of the audit log.
const EventsKey = "meeting_events"

// DefaultEventLimit caps the number of retained events.
const DefaultEventLimit = 500

// EventService provides event logging functionality.
// Events are kept as one capped JSON list in the storage substrate.
type EventService struct {
	kv    store.KV
	limit int
	now   func() time.Time
	mu    sync.Mutex
}

// NewEventService creates a new EventService.
func NewEventService(kv store.KV) *EventService {
	return &EventService{
		kv:    kv,
		limit: DefaultEventLimit,
		now:   time.Now,
	}
}

// LogEvent appends a new event, dropping the oldest once the cap is reached.
// It never logs through slog itself, since it is the sink of the slog handler.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, actor string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return err
	}

	events = append(events, model.Event{
		ID:        NewRecordID(),
		Level:     level,
		Category:  category,
		Message:   message,
		Actor:     actor,
		Metadata:  metadata,
		CreatedAt: s.now().UTC(),
	})
	if over := len(events) - s.limit; over > 0 {
		events = events[over:]
	}

	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encoding events: %w", err)
	}
	if err := s.kv.Put(ctx, EventsKey, raw); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message, actor string, metadata map[string]string) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, actor, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message, actor string, metadata map[string]string) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, actor, metadata)
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message, actor string, metadata map[string]string) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, actor, metadata)
}

// List returns up to limit events, newest first. A limit <= 0 returns all.
func (s *EventService) List(ctx context.Context, limit int) ([]model.Event, error) {
	s.mu.Lock()
	events, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	slices.Reverse(events)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// load reads the stored list. A malformed list is treated as empty so the
// audit log can never block a mutation.
func (s *EventService) load(ctx context.Context) ([]model.Event, error) {
	raw, err := s.kv.Get(ctx, EventsKey)
	if errors.Is(err, store.ErrNotFound) {
		return []model.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	var events []model.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return []model.Event{}, nil
	}
	return events, nil
}

func actorName(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
