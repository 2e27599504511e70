// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/olegiv/meetroom-go/internal/filedata"
	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/records"
)

// AttachmentService manages supplementary files. Attachments are only ever
// added or deleted, never edited.
type AttachmentService struct {
	records *records.Store
	events  *EventService
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewAttachmentService creates a new AttachmentService.
func NewAttachmentService(rs *records.Store, events *EventService, logger *slog.Logger) *AttachmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttachmentService{
		records: rs,
		events:  events,
		logger:  logger,
		now:     time.Now,
		newID:   NewRecordID,
	}
}

// List returns the attachments in upload order.
func (s *AttachmentService) List(_ context.Context) []model.Attachment {
	return s.records.Attachments()
}

// Get returns the attachment with the given id.
func (s *AttachmentService) Get(_ context.Context, id string) (model.Attachment, error) {
	atts := s.records.Attachments()
	idx := model.FindAttachment(atts, id)
	if idx < 0 {
		return model.Attachment{}, ErrNotFound
	}
	return atts[idx], nil
}

// Add awaits the pending ingestion and appends the result.
func (s *AttachmentService) Add(ctx context.Context, actor *model.User, pending <-chan filedata.Result) (model.Attachment, error) {
	if !actor.IsAdmin() {
		return model.Attachment{}, ErrForbidden
	}
	if pending == nil {
		return model.Attachment{}, &ValidationError{Field: "file", Message: "is required"}
	}

	res, err := filedata.Await(ctx, pending)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("ingesting file: %w", err)
	}

	var added model.Attachment
	err = s.records.UpdateAttachments(ctx, func(atts []model.Attachment) ([]model.Attachment, error) {
		id, err := uniqueID(s.newID, func(id string) bool { return model.FindAttachment(atts, id) >= 0 })
		if err != nil {
			return nil, err
		}
		added = model.Attachment{
			ID:         id,
			FileName:   res.FileName,
			FileData:   res.Data,
			UploadedAt: s.now().UTC(),
		}
		return append(atts, added), nil
	})
	if err != nil {
		return model.Attachment{}, err
	}

	s.logEvent(ctx, "Attachment added", actor, map[string]string{"id": added.ID, "file_name": added.FileName})
	return added, nil
}

// Delete removes the attachment with the given id. Unknown ids are ignored.
func (s *AttachmentService) Delete(ctx context.Context, actor *model.User, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	removed := false
	err := s.records.UpdateAttachments(ctx, func(atts []model.Attachment) ([]model.Attachment, error) {
		next := slices.DeleteFunc(atts, func(a model.Attachment) bool { return a.ID == id })
		removed = len(next) != len(atts)
		return next, nil
	})
	if err != nil {
		return err
	}

	if removed {
		s.logEvent(ctx, "Attachment deleted", actor, map[string]string{"id": id})
	}
	return nil
}

func (s *AttachmentService) logEvent(ctx context.Context, message string, actor *model.User, metadata map[string]string) {
	if s.events == nil {
		return
	}
	if err := s.events.LogInfo(ctx, model.EventCategoryAttachment, message, actorName(actor), metadata); err != nil {
		s.logger.Error("failed to record attachment event", "error", err, "message", message)
	}
}
