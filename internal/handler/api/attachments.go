// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/meetroom-go/internal/filedata"
	"github.com/olegiv/meetroom-go/internal/middleware"
	"github.com/olegiv/meetroom-go/internal/model"
)

// AttachmentResponse represents an attachment in API responses.
type AttachmentResponse struct {
	ID         string        `json:"id"`
	FileName   string        `json:"fileName"`
	Kind       filedata.Kind `json:"kind"`
	MIMEType   string        `json:"mimeType,omitempty"`
	UploadedAt time.Time     `json:"uploadedAt"`
}

func attachmentResponse(a model.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         a.ID,
		FileName:   a.FileName,
		Kind:       filedata.KindOf(a.FileData),
		MIMEType:   filedata.MIMEOf(a.FileData),
		UploadedAt: a.UploadedAt,
	}
}

// ListAttachments handles GET /api/v1/attachments.
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	atts := h.atts.List(r.Context())

	resp := make([]AttachmentResponse, 0, len(atts))
	for _, a := range atts {
		resp = append(resp, attachmentResponse(a))
	}
	WriteSuccess(w, resp)
}

// CreateAttachment handles POST /api/v1/attachments (multipart, one "file" part).
func (h *Handler) CreateAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload is too large", nil)
		} else {
			WriteBadRequest(w, "Expected a multipart form", nil)
		}
		return
	}

	var pending <-chan filedata.Result
	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		WriteBadRequest(w, "Unreadable file part", nil)
		return
	default:
		defer func() { _ = file.Close() }()
		pending = ingest(r, file, header)
	}

	att, err := h.atts.Add(r.Context(), middleware.GetUser(r), pending)
	if err != nil {
		h.writeServiceError(w, r, err, "Attachment")
		return
	}
	WriteCreated(w, attachmentResponse(att))
}

// DeleteAttachment handles DELETE /api/v1/attachments/{id}. Unknown ids succeed.
func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.atts.Delete(r.Context(), middleware.GetUser(r), id); err != nil {
		h.writeServiceError(w, r, err, "Attachment")
		return
	}
	h.dropPreview(r, attachmentPreviewKey(id))
	w.WriteHeader(http.StatusNoContent)
}

// AttachmentFile handles GET /api/v1/attachments/{id}/file.
func (h *Handler) AttachmentFile(w http.ResponseWriter, r *http.Request) {
	att, err := h.atts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Attachment")
		return
	}
	h.serveFile(w, r, att.FileName, att.FileData, "attachment")
}

// AttachmentPreview handles GET /api/v1/attachments/{id}/preview.
func (h *Handler) AttachmentPreview(w http.ResponseWriter, r *http.Request) {
	att, err := h.atts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Attachment")
		return
	}
	h.servePreview(w, r, attachmentPreviewKey(att.ID), att.FileName, att.FileData)
}
