// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package records holds the two persistent collections of the board,
// documents and attachments, and mirrors them into the storage substrate.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/store"
)

// Storage keys, shared with the browser app's localStorage layout.
const (
	DocumentsKey   = "meeting_docs"
	AttachmentsKey = "meeting_attachments"
)

// Snapshot is a point-in-time copy of both collections.
type Snapshot struct {
	Documents   []model.MeetingDocument
	Attachments []model.Attachment
}

// Store keeps the in-memory collections and persists every replacement.
// Writers are serialised; readers always receive copies.
type Store struct {
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time

	writeMu sync.Mutex

	mu          sync.RWMutex
	documents   []model.MeetingDocument
	attachments []model.Attachment
}

// New creates an empty store backed by kv. Call Load to read persisted state.
func New(kv store.KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:          kv,
		logger:      logger,
		now:         time.Now,
		documents:   []model.MeetingDocument{},
		attachments: []model.Attachment{},
	}
}

// Load reads both collections. A missing entry yields an empty collection.
// An entry that cannot be decoded also yields an empty collection: it is
// logged and its raw bytes are copied aside under "<key>.corrupt.<nanos>".
// Only a failure to read from the substrate is returned.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	docs, err := loadCollection[model.MeetingDocument](ctx, s, DocumentsKey)
	if err != nil {
		return err
	}
	atts, err := loadCollection[model.Attachment](ctx, s, AttachmentsKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.documents = docs
	s.attachments = atts
	s.mu.Unlock()

	s.logger.Info("records loaded", "documents", len(docs), "attachments", len(atts))
	return nil
}

func loadCollection[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}

	items, decodeErr := decodeItems[T](raw)
	if decodeErr == nil {
		return items, nil
	}

	quarantine := key + ".corrupt." + strconv.FormatInt(s.now().UnixNano(), 10)
	s.logger.Warn("stored collection is malformed, starting empty",
		"category", model.EventCategoryStorage,
		"key", key,
		"quarantine_key", quarantine,
		"error", decodeErr)
	if err := s.kv.Put(ctx, quarantine, raw); err != nil {
		s.logger.Warn("failed to quarantine malformed collection",
			"category", model.EventCategoryStorage, "key", key, "error", err)
	}
	return []T{}, nil
}

// Documents returns a copy of the document collection in storage order.
func (s *Store) Documents() []model.MeetingDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.documents)
}

// Attachments returns a copy of the attachment collection.
func (s *Store) Attachments() []model.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.attachments)
}

// Snapshot returns copies of both collections taken under one read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Documents:   slices.Clone(s.documents),
		Attachments: slices.Clone(s.attachments),
	}
}

// ReplaceDocuments persists docs and then makes them the current collection.
// On a write error the in-memory collection is left unchanged.
func (s *Store) ReplaceDocuments(ctx context.Context, docs []model.MeetingDocument) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.replaceDocuments(ctx, docs)
}

// ReplaceAttachments persists atts and then makes them the current collection.
func (s *Store) ReplaceAttachments(ctx context.Context, atts []model.Attachment) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.replaceAttachments(ctx, atts)
}

// UpdateDocuments applies fn to the current documents under the writer lock
// and persists the result. If fn returns an error nothing is written.
func (s *Store) UpdateDocuments(ctx context.Context, fn func([]model.MeetingDocument) ([]model.MeetingDocument, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, err := fn(s.Documents())
	if err != nil {
		return err
	}
	return s.replaceDocuments(ctx, next)
}

// UpdateAttachments applies fn to the current attachments under the writer lock.
func (s *Store) UpdateAttachments(ctx context.Context, fn func([]model.Attachment) ([]model.Attachment, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, err := fn(s.Attachments())
	if err != nil {
		return err
	}
	return s.replaceAttachments(ctx, next)
}

// Restore replaces both collections with snap.
func (s *Store) Restore(ctx context.Context, snap Snapshot) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.replaceDocuments(ctx, snap.Documents); err != nil {
		return err
	}
	return s.replaceAttachments(ctx, snap.Attachments)
}

func (s *Store) replaceDocuments(ctx context.Context, docs []model.MeetingDocument) error {
	docs = slices.Clone(nonNil(docs))
	if err := persist(ctx, s, DocumentsKey, docs); err != nil {
		return err
	}
	s.mu.Lock()
	s.documents = docs
	s.mu.Unlock()
	return nil
}

func (s *Store) replaceAttachments(ctx context.Context, atts []model.Attachment) error {
	atts = slices.Clone(nonNil(atts))
	if err := persist(ctx, s, AttachmentsKey, atts); err != nil {
		return err
	}
	s.mu.Lock()
	s.attachments = atts
	s.mu.Unlock()
	return nil
}

func persist[T any](ctx context.Context, s *Store, key string, items []T) error {
	raw, err := encodeItems(items)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	if err := s.kv.Put(ctx, key, raw); err != nil {
		s.logger.Error("failed to persist collection",
			"category", model.EventCategoryStorage, "key", key, "items", len(items), "error", err)
		return fmt.Errorf("persisting %s: %w", key, err)
	}
	return nil
}
