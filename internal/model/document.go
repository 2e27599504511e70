// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"sort"
	"time"

	"github.com/olegiv/meetroom-go/internal/filedata"
)

// MeetingDocument is one agenda item on the board.
// JSON names match the blobs written by the original browser app.
type MeetingDocument struct {
	ID        string    `json:"id"`
	Order     int       `json:"order"`
	Content   string    `json:"content"`
	Presenter string    `json:"presenter"`
	FileName  string    `json:"fileName"`
	FileData  string    `json:"fileData,omitempty"`
	AISummary string    `json:"aiSummary,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasFile reports whether a file was ever attached.
func (d *MeetingDocument) HasFile() bool {
	return d.FileData != ""
}

// Draft is an unsaved candidate document.
type Draft struct {
	Order     int
	Content   string
	Presenter string
	AISummary string

	// File is the pending ingestion of a newly selected file.
	// nil means the draft carries no new file.
	File <-chan filedata.Result

	// Summarize requests a best-effort summary before commit
	// when AISummary is empty.
	Summarize bool
}

// SortDocuments returns a copy of docs ordered by Order ascending.
// Documents with equal Order keep their collection order.
func SortDocuments(docs []MeetingDocument) []MeetingDocument {
	sorted := make([]MeetingDocument, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// FindDocument returns the index of the document with id, or -1.
func FindDocument(docs []MeetingDocument, id string) int {
	for i := range docs {
		if docs[i].ID == id {
			return i
		}
	}
	return -1
}
