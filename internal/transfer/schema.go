// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer provides import/export of the board's collections as a
// single JSON document.
package transfer

import (
	"fmt"
	"time"

	"github.com/olegiv/meetroom-go/internal/model"
)

// ExportVersion is the current version of the export format.
const ExportVersion = "1"

// ExportData represents the complete export structure.
type ExportData struct {
	Version     string                  `json:"version"`
	ExportedAt  time.Time               `json:"exported_at"`
	Documents   []model.MeetingDocument `json:"documents"`
	Attachments []model.Attachment      `json:"attachments"`
}

// ImportError describes one problem found while validating import data.
type ImportError struct {
	Entity  string `json:"entity"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

func (e ImportError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Entity, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Message)
}

// ImportOptions configures an import.
type ImportOptions struct {
	// DryRun validates and counts without writing.
	DryRun bool
}

// ImportResult summarises an import.
type ImportResult struct {
	DryRun      bool          `json:"dry_run"`
	Documents   int           `json:"documents"`
	Attachments int           `json:"attachments"`
	Errors      []ImportError `json:"errors,omitempty"`
}

// Success reports whether the import found no errors.
func (r *ImportResult) Success() bool {
	return len(r.Errors) == 0
}
