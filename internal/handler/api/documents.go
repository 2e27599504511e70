// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/meetroom-go/internal/filedata"
	"github.com/olegiv/meetroom-go/internal/middleware"
	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/render"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// DocumentResponse represents a meeting document in API responses.
type DocumentResponse struct {
	ID          string        `json:"id"`
	Order       int           `json:"order"`
	Content     string        `json:"content"`
	Presenter   string        `json:"presenter"`
	FileName    string        `json:"fileName"`
	Kind        filedata.Kind `json:"kind"`
	MIMEType    string        `json:"mimeType,omitempty"`
	FileData    string        `json:"fileData,omitempty"`
	AISummary   string        `json:"aiSummary,omitempty"`
	SummaryHTML string        `json:"summary_html,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func documentResponse(d model.MeetingDocument, withFile bool) DocumentResponse {
	resp := DocumentResponse{
		ID:          d.ID,
		Order:       d.Order,
		Content:     d.Content,
		Presenter:   d.Presenter,
		FileName:    d.FileName,
		Kind:        filedata.KindOf(d.FileData),
		MIMEType:    filedata.MIMEOf(d.FileData),
		AISummary:   d.AISummary,
		SummaryHTML: string(render.Markdown(d.AISummary)),
		CreatedAt:   d.CreatedAt,
	}
	if withFile {
		resp.FileData = d.FileData
	}
	return resp
}

// ListDocuments handles GET /api/v1/documents. File contents are omitted.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := h.docs.List(r.Context())

	resp := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, documentResponse(d, false))
	}
	WriteSuccess(w, resp)
}

// GetDocument handles GET /api/v1/documents/{id}, including the encoded file.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Document")
		return
	}
	WriteSuccess(w, documentResponse(doc, true))
}

// CreateDocument handles POST /api/v1/documents (multipart).
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	h.saveDocument(w, r, "")
}

// UpdateDocument handles PUT /api/v1/documents/{id} (multipart). Without a
// file part the stored file is kept.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	h.saveDocument(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) saveDocument(w http.ResponseWriter, r *http.Request, targetID string) {
	draft, closeFile, ok := h.parseDraft(w, r)
	if !ok {
		return
	}
	defer closeFile()

	doc, err := h.docs.Save(r.Context(), middleware.GetUser(r), targetID, draft)
	if err != nil {
		h.writeServiceError(w, r, err, "Document")
		return
	}

	if targetID == "" {
		WriteCreated(w, documentResponse(doc, false))
		return
	}
	h.dropPreview(r, documentPreviewKey(doc.ID))
	WriteSuccess(w, documentResponse(doc, false))
}

// parseDraft reads the multipart form into a Draft. The returned func
// closes the uploaded file once the draft has been saved.
func (h *Handler) parseDraft(w http.ResponseWriter, r *http.Request) (model.Draft, func(), bool) {
	noop := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload is too large", nil)
		} else {
			WriteBadRequest(w, "Expected a multipart form", nil)
		}
		return model.Draft{}, noop, false
	}

	draft := model.Draft{
		Content:   r.FormValue("content"),
		Presenter: r.FormValue("presenter"),
		AISummary: r.FormValue("aiSummary"),
	}

	if raw := strings.TrimSpace(r.FormValue("order")); raw != "" {
		order, err := strconv.Atoi(raw)
		if err != nil {
			WriteValidationError(w, map[string]string{"order": "must be a whole number"})
			return model.Draft{}, noop, false
		}
		draft.Order = order
	}
	if raw := r.FormValue("summarize"); raw != "" {
		draft.Summarize, _ = strconv.ParseBool(raw)
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return draft, noop, true
	case err != nil:
		WriteBadRequest(w, "Unreadable file part", nil)
		return model.Draft{}, noop, false
	}

	draft.File = ingest(r, file, header)
	return draft, func() { _ = file.Close() }, true
}

func ingest(r *http.Request, file multipart.File, header *multipart.FileHeader) <-chan filedata.Result {
	return filedata.IngestAsync(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
}

// DeleteDocument handles DELETE /api/v1/documents/{id}. Unknown ids succeed.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.docs.Delete(r.Context(), middleware.GetUser(r), id); err != nil {
		h.writeServiceError(w, r, err, "Document")
		return
	}
	h.dropPreview(r, documentPreviewKey(id))
	w.WriteHeader(http.StatusNoContent)
}

// DocumentFile handles GET /api/v1/documents/{id}/file.
func (h *Handler) DocumentFile(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Document")
		return
	}
	h.serveFile(w, r, doc.FileName, doc.FileData, "attachment")
}

// DocumentPreview handles GET /api/v1/documents/{id}/preview.
func (h *Handler) DocumentPreview(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Document")
		return
	}
	h.servePreview(w, r, documentPreviewKey(doc.ID), doc.FileName, doc.FileData)
}

// SummaryRequest is the body of POST /api/v1/summaries.
type SummaryRequest struct {
	Content string `json:"content"`
}

// SummaryResponse carries a generated summary. On upstream failure Summary
// holds the fallback text.
type SummaryResponse struct {
	Summary     string `json:"summary"`
	SummaryHTML string `json:"summary_html"`
}

// Summarize handles POST /api/v1/summaries.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUpload)).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	summary, err := h.docs.Summarize(r.Context(), middleware.GetUser(r), req.Content)
	if err != nil {
		h.writeServiceError(w, r, err, "Summary")
		return
	}
	WriteSuccess(w, SummaryResponse{Summary: summary, SummaryHTML: string(render.Markdown(summary))})
}
