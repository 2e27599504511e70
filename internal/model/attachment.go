// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Attachment is a supplementary file. Attachments are appended and deleted,
// never edited.
type Attachment struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileData   string    `json:"fileData"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// FindAttachment returns the index of the attachment with id, or -1.
func FindAttachment(atts []Attachment, id string) int {
	for i := range atts {
		if atts[i].ID == id {
			return i
		}
	}
	return -1
}
