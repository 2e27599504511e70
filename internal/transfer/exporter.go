// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/olegiv/meetroom-go/internal/records"
)

// Snapshotter returns a consistent copy of the collections.
// *records.Store satisfies it.
type Snapshotter interface {
	Snapshot() records.Snapshot
}

// Exporter writes the collections as ExportData.
type Exporter struct {
	source Snapshotter
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter creates a new Exporter.
func NewExporter(source Snapshotter, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{source: source, logger: logger, now: time.Now}
}

// Export returns both collections as they are right now.
func (e *Exporter) Export(_ context.Context) *ExportData {
	snap := e.source.Snapshot()
	return &ExportData{
		Version:     ExportVersion,
		ExportedAt:  e.now().UTC(),
		Documents:   snap.Documents,
		Attachments: snap.Attachments,
	}
}

// ExportToWriter writes the export as indented JSON.
func (e *Exporter) ExportToWriter(ctx context.Context, w io.Writer) error {
	data := e.Export(ctx)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	e.logger.Info("export written",
		"category", "storage",
		"documents", len(data.Documents),
		"attachments", len(data.Attachments),
	)
	return nil
}

// ExportToFile writes the export to path through a temporary file, so a
// reader never sees a half-written export.
func (e *Exporter) ExportToFile(ctx context.Context, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := e.ExportToWriter(ctx, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming export: %w", err)
	}
	return nil
}
