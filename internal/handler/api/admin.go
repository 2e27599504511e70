// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/olegiv/meetroom-go/internal/middleware"
	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/transfer"
	"github.com/olegiv/meetroom-go/internal/util"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// ListEvents handles GET /api/v1/events?limit=N, newest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteBadRequest(w, "limit must be a positive number", nil)
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.events.List(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err, "Events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	WriteSuccess(w, events)
}

// Export handles GET /api/v1/export as a JSON download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data := h.exporter.Export(r.Context())
	name := "meetroom-export-" + data.ExportedAt.Format("20060102-150405") + ".json"

	w.Header().Set("Content-Disposition", util.ContentDisposition("attachment", name))
	WriteJSON(w, http.StatusOK, data)

	if user := middleware.GetUser(r); user != nil && h.events != nil {
		_ = h.events.LogInfo(r.Context(), model.EventCategoryStorage, "Data exported", user.Username, map[string]string{
			"documents":   strconv.Itoa(len(data.Documents)),
			"attachments": strconv.Itoa(len(data.Attachments)),
		})
	}
}

// Import handles POST /api/v1/import with an export document as the body.
// ?dry_run=true only validates.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	body := http.MaxBytesReader(w, r.Body, h.maxUpload)

	result, err := h.importer.ImportFromReader(r.Context(), body, transfer.ImportOptions{DryRun: dryRun})
	switch {
	case errors.Is(err, transfer.ErrValidation):
		details := make(map[string]string, len(result.Errors))
		for i, e := range result.Errors {
			details[strconv.Itoa(i)] = e.Error()
		}
		WriteError(w, http.StatusBadRequest, "validation_error", "Import data is invalid", details)
		return
	case result == nil && err != nil:
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Import is too large", nil)
			return
		}
		WriteBadRequest(w, "Import body is not valid JSON", nil)
		return
	case err != nil:
		h.writeServiceError(w, r, err, "Import")
		return
	}

	if !dryRun {
		h.invalidatePreviews(r)
		if user := middleware.GetUser(r); user != nil && h.events != nil {
			_ = h.events.LogWarning(r.Context(), model.EventCategoryStorage, "Data imported; collections replaced", user.Username, map[string]string{
				"documents":   strconv.Itoa(result.Documents),
				"attachments": strconv.Itoa(result.Attachments),
			})
		}
	}
	WriteSuccess(w, result)
}

// invalidatePreviews drops cached thumbnails of every current record after
// the collections were replaced wholesale.
func (h *Handler) invalidatePreviews(r *http.Request) {
	for _, d := range h.docs.List(r.Context()) {
		h.dropPreview(r, documentPreviewKey(d.ID))
	}
	for _, a := range h.atts.List(r.Context()) {
		h.dropPreview(r, attachmentPreviewKey(a.ID))
	}
}
