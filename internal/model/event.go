// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth       = "auth"
	EventCategoryDocument   = "document"
	EventCategoryAttachment = "attachment"
	EventCategorySummary    = "summary"
	EventCategoryStorage    = "storage"
	EventCategorySystem     = "system"
)

// Event represents an audit log entry.
type Event struct {
	ID        string            `json:"id"`
	Level     string            `json:"level"`
	Category  string            `json:"category"`
	Message   string            `json:"message"`
	Actor     string            `json:"actor,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
