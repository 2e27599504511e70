// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/meetroom-go/internal/filedata"
	"github.com/olegiv/meetroom-go/internal/model"
)

// maxIDAttempts bounds the retry loop when a generated id collides.
const maxIDAttempts = 8

// Submission is a draft whose file ingestion has already completed.
// File is nil when no new file was chosen.
type Submission struct {
	Order     int
	Content   string
	Presenter string
	AISummary string
	File      *filedata.Result
}

// NewRecordID returns a time-ordered UUIDv7 string.
func NewRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SaveDocument merges sub into existing. With a nil target a new document is
// appended; otherwise the document with target's id is updated in place,
// keeping its id and creation time, and keeping its file unless sub carries
// a new one. existing is never modified.
func SaveDocument(existing []model.MeetingDocument, target *model.MeetingDocument, sub Submission, now time.Time, newID func() string) ([]model.MeetingDocument, model.MeetingDocument, error) {
	if err := validateSubmission(target == nil, sub); err != nil {
		return existing, model.MeetingDocument{}, err
	}

	if target == nil {
		id, err := uniqueID(newID, func(id string) bool { return model.FindDocument(existing, id) >= 0 })
		if err != nil {
			return existing, model.MeetingDocument{}, err
		}
		doc := model.MeetingDocument{
			ID:        id,
			Order:     sub.Order,
			Content:   sub.Content,
			Presenter: sub.Presenter,
			FileName:  sub.File.FileName,
			FileData:  sub.File.Data,
			AISummary: sub.AISummary,
			CreatedAt: now,
		}
		next := make([]model.MeetingDocument, 0, len(existing)+1)
		next = append(next, existing...)
		return append(next, doc), doc, nil
	}

	idx := model.FindDocument(existing, target.ID)
	if idx < 0 {
		return existing, model.MeetingDocument{}, ErrNotFound
	}

	next := slices.Clone(existing)
	doc := next[idx]
	doc.Order = sub.Order
	doc.Content = sub.Content
	doc.Presenter = sub.Presenter
	doc.AISummary = sub.AISummary
	if sub.File != nil {
		doc.FileName = sub.File.FileName
		doc.FileData = sub.File.Data
	}
	next[idx] = doc
	return next, doc, nil
}

// DeleteDocument returns existing without the document whose id matches.
// An unknown id leaves the collection as it was.
func DeleteDocument(existing []model.MeetingDocument, id string) []model.MeetingDocument {
	return slices.DeleteFunc(slices.Clone(existing), func(d model.MeetingDocument) bool {
		return d.ID == id
	})
}

func validateSubmission(isNew bool, sub Submission) error {
	if strings.TrimSpace(sub.Content) == "" {
		return &ValidationError{Field: "content", Message: "is required"}
	}
	if strings.TrimSpace(sub.Presenter) == "" {
		return &ValidationError{Field: "presenter", Message: "is required"}
	}
	if isNew && (sub.File == nil || sub.File.Data == "") {
		return &ValidationError{Field: "file", Message: "is required for a new document"}
	}
	return nil
}

// uniqueID draws ids from newID until one is not taken.
func uniqueID(newID func() string, taken func(string) bool) (string, error) {
	for range maxIDAttempts {
		if id := newID(); !taken(id) {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}
