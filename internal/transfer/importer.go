// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/olegiv/meetroom-go/internal/filedata"
	"github.com/olegiv/meetroom-go/internal/records"
)

// ErrValidation is returned by Import when the data has ImportErrors.
var ErrValidation = errors.New("validation failed")

// Restorer replaces both collections at once. *records.Store satisfies it.
type Restorer interface {
	Restore(ctx context.Context, snap records.Snapshot) error
}

// Importer replaces the collections with the contents of an export.
type Importer struct {
	target Restorer
	logger *slog.Logger
}

// NewImporter creates a new Importer instance.
func NewImporter(target Restorer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{target: target, logger: logger}
}

// Import validates data and, unless it is a dry run, restores both
// collections from it. Nothing is written when validation fails.
func (i *Importer) Import(ctx context.Context, data *ExportData, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{
		DryRun:      opts.DryRun,
		Documents:   len(data.Documents),
		Attachments: len(data.Attachments),
	}

	result.Errors = i.Validate(data)
	if len(result.Errors) > 0 {
		return result, ErrValidation
	}
	if opts.DryRun {
		return result, nil
	}

	if err := i.target.Restore(ctx, records.Snapshot{
		Documents:   data.Documents,
		Attachments: data.Attachments,
	}); err != nil {
		return result, fmt.Errorf("restoring collections: %w", err)
	}

	i.logger.Info("import applied",
		"category", "storage",
		"documents", result.Documents,
		"attachments", result.Attachments,
	)
	return result, nil
}

// ImportFromReader decodes JSON export data from r and imports it.
func (i *Importer) ImportFromReader(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	var data ExportData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding import data: %w", err)
	}
	return i.Import(ctx, &data, opts)
}

// ImportFromFile imports the export stored at path.
func (i *Importer) ImportFromFile(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return i.ImportFromReader(ctx, f, opts)
}

// Validate checks the export version and that ids are present and unique
// within each collection. Stored files must be data URLs.
func (i *Importer) Validate(data *ExportData) []ImportError {
	var errs []ImportError

	if data.Version != ExportVersion {
		errs = append(errs, ImportError{
			Entity:  "export",
			Message: fmt.Sprintf("unsupported version %q (expected %q)", data.Version, ExportVersion),
		})
	}

	seen := make(map[string]bool, len(data.Documents))
	for _, d := range data.Documents {
		switch {
		case d.ID == "":
			errs = append(errs, ImportError{Entity: "document", Message: "missing id"})
		case seen[d.ID]:
			errs = append(errs, ImportError{Entity: "document", ID: d.ID, Message: "duplicate id"})
		}
		seen[d.ID] = true

		if d.FileData != "" {
			if _, _, err := filedata.Decode(d.FileData); err != nil {
				errs = append(errs, ImportError{Entity: "document", ID: d.ID, Message: "fileData is not a data URL"})
			}
		}
	}

	seen = make(map[string]bool, len(data.Attachments))
	for _, a := range data.Attachments {
		switch {
		case a.ID == "":
			errs = append(errs, ImportError{Entity: "attachment", Message: "missing id"})
		case seen[a.ID]:
			errs = append(errs, ImportError{Entity: "attachment", ID: a.ID, Message: "duplicate id"})
		}
		seen[a.ID] = true

		if _, _, err := filedata.Decode(a.FileData); err != nil {
			errs = append(errs, ImportError{Entity: "attachment", ID: a.ID, Message: "fileData is not a data URL"})
		}
	}

	return errs
}
