// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/meetroom-go/internal/cache"
	"github.com/olegiv/meetroom-go/internal/filedata"
	"github.com/olegiv/meetroom-go/internal/imaging"
	"github.com/olegiv/meetroom-go/internal/util"
)

// previewMIMESuffix keys the content type stored next to each cached thumbnail.
const previewMIMESuffix = ":mime"

func documentPreviewKey(id string) string   { return "doc:" + id }
func attachmentPreviewKey(id string) string { return "att:" + id }

// serveFile decodes a stored data URL and writes the bytes.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, name, encoded, disposition string) {
	if encoded == "" {
		WriteNotFound(w, "No file stored")
		return
	}
	mime, data, err := filedata.Decode(encoded)
	if err != nil {
		h.logger.Warn("stored file is not a data URL",
			"category", "storage",
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, http.StatusUnprocessableEntity, "corrupt_file", "Stored file cannot be decoded", nil)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", util.ContentDisposition(disposition, name))
	if disposition == "inline" {
		// The API-wide CSP would stop the browser's PDF viewer.
		w.Header().Del("Content-Security-Policy")
	}
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(data))
}

// servePreview writes a thumbnail for images and the inline bytes for PDFs.
// Everything else is download-only.
func (h *Handler) servePreview(w http.ResponseWriter, r *http.Request, key, name, encoded string) {
	switch filedata.KindOf(encoded) {
	case filedata.KindDocument:
		h.serveFile(w, r, name, encoded, "inline")
		return
	case filedata.KindDownload:
		WriteError(w, http.StatusUnsupportedMediaType, "download_only", "This file can only be downloaded", nil)
		return
	}

	if data, mime, ok := h.cachedPreview(r, key); ok {
		writePreview(w, data, mime)
		return
	}

	_, raw, err := filedata.Decode(encoded)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "corrupt_file", "Stored file cannot be decoded", nil)
		return
	}
	thumb, err := imaging.MakeThumbnail(raw, imaging.DefaultThumbnailSize)
	if err != nil {
		// Formats the decoder does not know (SVG, HEIC) are still downloadable.
		WriteError(w, http.StatusUnsupportedMediaType, "download_only", "This image cannot be previewed", nil)
		return
	}

	if h.previews != nil {
		ctx := r.Context()
		if err := h.previews.Set(ctx, key, thumb.Data, 0); err == nil {
			_ = h.previews.Set(ctx, key+previewMIMESuffix, []byte(thumb.MIME), 0)
		}
	}
	writePreview(w, thumb.Data, thumb.MIME)
}

func (h *Handler) cachedPreview(r *http.Request, key string) ([]byte, string, bool) {
	if h.previews == nil {
		return nil, "", false
	}
	data, err := h.previews.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("preview cache read failed", "error", err)
		}
		return nil, "", false
	}
	mime, err := h.previews.Get(r.Context(), key+previewMIMESuffix)
	if err != nil {
		return nil, "", false
	}
	return data, string(mime), true
}

func (h *Handler) dropPreview(r *http.Request, key string) {
	if h.previews == nil {
		return
	}
	_ = h.previews.Delete(r.Context(), key)
	_ = h.previews.Delete(r.Context(), key+previewMIMESuffix)
}

func writePreview(w http.ResponseWriter, data []byte, mime string) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
