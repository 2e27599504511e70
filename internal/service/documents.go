// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/meetroom-go/internal/filedata"
	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/records"
)

// Summarizer produces a short summary of meeting content. Implementations
// never fail; they return a fallback text instead.
type Summarizer interface {
	Summarize(ctx context.Context, content string) string
}

// DocumentService implements the document editor workflow on top of the
// record store.
type DocumentService struct {
	records    *records.Store
	events     *EventService
	summarizer Summarizer
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// NewDocumentService creates a new DocumentService. summarizer may be nil,
// in which case summary requests are ignored.
func NewDocumentService(rs *records.Store, events *EventService, summarizer Summarizer, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		records:    rs,
		events:     events,
		summarizer: summarizer,
		logger:     logger,
		now:        time.Now,
		newID:      NewRecordID,
	}
}

// List returns all documents ordered by their agenda order.
func (s *DocumentService) List(_ context.Context) []model.MeetingDocument {
	return model.SortDocuments(s.records.Documents())
}

// Get returns the document with the given id.
func (s *DocumentService) Get(_ context.Context, id string) (model.MeetingDocument, error) {
	docs := s.records.Documents()
	idx := model.FindDocument(docs, id)
	if idx < 0 {
		return model.MeetingDocument{}, ErrNotFound
	}
	return docs[idx], nil
}

// Save creates a document (empty targetID) or updates the document targetID.
// Pending file ingestion is awaited before anything is committed; if ctx is
// cancelled first, nothing is applied.
func (s *DocumentService) Save(ctx context.Context, actor *model.User, targetID string, draft model.Draft) (model.MeetingDocument, error) {
	if !actor.IsAdmin() {
		return model.MeetingDocument{}, ErrForbidden
	}

	sub := Submission{
		Order:     draft.Order,
		Content:   draft.Content,
		Presenter: draft.Presenter,
		AISummary: draft.AISummary,
	}

	if draft.File != nil {
		res, err := filedata.Await(ctx, draft.File)
		if err != nil {
			return model.MeetingDocument{}, fmt.Errorf("ingesting file: %w", err)
		}
		sub.File = &res
	}

	isNew := targetID == ""
	if err := validateSubmission(isNew, sub); err != nil {
		return model.MeetingDocument{}, err
	}

	if draft.Summarize && strings.TrimSpace(sub.AISummary) == "" && s.summarizer != nil {
		sub.AISummary = s.summarizer.Summarize(ctx, sub.Content)
	}
	if err := ctx.Err(); err != nil {
		return model.MeetingDocument{}, err
	}

	var saved model.MeetingDocument
	err := s.records.UpdateDocuments(ctx, func(docs []model.MeetingDocument) ([]model.MeetingDocument, error) {
		var target *model.MeetingDocument
		if !isNew {
			idx := model.FindDocument(docs, targetID)
			if idx < 0 {
				return nil, ErrNotFound
			}
			target = &docs[idx]
		}

		next, doc, err := SaveDocument(docs, target, sub, s.now().UTC(), s.newID)
		if err != nil {
			return nil, err
		}
		saved = doc
		return next, nil
	})
	if err != nil {
		return model.MeetingDocument{}, err
	}

	message := "Document updated"
	if isNew {
		message = "Document created"
	}
	s.logEvent(ctx, message, actor, map[string]string{
		"id":        saved.ID,
		"order":     strconv.Itoa(saved.Order),
		"file_name": saved.FileName,
	})

	return saved, nil
}

// Delete removes the document with the given id. Unknown ids are ignored.
func (s *DocumentService) Delete(ctx context.Context, actor *model.User, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	removed := false
	err := s.records.UpdateDocuments(ctx, func(docs []model.MeetingDocument) ([]model.MeetingDocument, error) {
		next := DeleteDocument(docs, id)
		removed = len(next) != len(docs)
		return next, nil
	})
	if err != nil {
		return err
	}

	if removed {
		s.logEvent(ctx, "Document deleted", actor, map[string]string{"id": id})
	}
	return nil
}

// Summarize runs the summarization gateway on behalf of actor.
func (s *DocumentService) Summarize(ctx context.Context, actor *model.User, content string) (string, error) {
	if !actor.IsAdmin() {
		return "", ErrForbidden
	}
	if strings.TrimSpace(content) == "" {
		return "", &ValidationError{Field: "content", Message: "is required"}
	}
	if s.summarizer == nil {
		return "", fmt.Errorf("summarization is not configured")
	}
	return s.summarizer.Summarize(ctx, content), nil
}

func (s *DocumentService) logEvent(ctx context.Context, message string, actor *model.User, metadata map[string]string) {
	if s.events == nil {
		return
	}
	if err := s.events.LogInfo(ctx, model.EventCategoryDocument, message, actorName(actor), metadata); err != nil {
		s.logger.Error("failed to record document event", "error", err, "message", message)
	}
}
