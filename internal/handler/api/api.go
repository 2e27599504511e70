// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON HTTP API of the meeting board.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/meetroom-go/internal/auth"
	"github.com/olegiv/meetroom-go/internal/cache"
	"github.com/olegiv/meetroom-go/internal/geoip"
	"github.com/olegiv/meetroom-go/internal/service"
	"github.com/olegiv/meetroom-go/internal/store"
	"github.com/olegiv/meetroom-go/internal/transfer"
	"github.com/olegiv/meetroom-go/internal/version"
)

// DefaultMaxUploadBytes caps multipart and import bodies when Deps leaves it unset.
const DefaultMaxUploadBytes = 25 << 20

// Deps are the collaborators of the API handlers.
type Deps struct {
	Documents   *service.DocumentService
	Attachments *service.AttachmentService
	Events      *service.EventService
	Gate        *auth.Gate
	Exporter    *transfer.Exporter
	Importer    *transfer.Importer

	// Storage is probed by the health check.
	Storage store.KV

	// Previews caches rendered thumbnails; nil disables caching.
	Previews cache.Cache

	// GeoIP adds the login country to auth events; nil is allowed.
	GeoIP *geoip.Lookup

	MaxUploadBytes int64
	Version        version.Info
	Logger         *slog.Logger
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	docs      *service.DocumentService
	atts      *service.AttachmentService
	events    *service.EventService
	gate      *auth.Gate
	exporter  *transfer.Exporter
	importer  *transfer.Importer
	storage   store.KV
	previews  cache.Cache
	geo       *geoip.Lookup
	maxUpload int64
	version   version.Info
	logger    *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		docs:      d.Documents,
		atts:      d.Attachments,
		events:    d.Events,
		gate:      d.Gate,
		exporter:  d.Exporter,
		importer:  d.Importer,
		storage:   d.Storage,
		previews:  d.Previews,
		geo:       d.GeoIP,
		maxUpload: d.MaxUploadBytes,
		version:   d.Version,
		logger:    d.Logger,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any `json:"data"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Data: data})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 400 response naming the rejected field.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusBadRequest, "validation_error", "Validation failed", fieldErrors)
}

// writeServiceError maps service errors to responses. Unexpected errors are
// logged and reported without detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	var verr *service.ValidationError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, map[string]string{verr.Field: verr.Message})
	case errors.Is(err, service.ErrForbidden):
		WriteForbidden(w, "Only the administrator can do this")
	case errors.Is(err, service.ErrNotFound):
		WriteNotFound(w, entity+" not found")
	case errors.As(err, &maxErr):
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload is too large", nil)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing was applied and nobody is listening.
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusServiceUnavailable, "timeout", "Request timed out", nil)
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		WriteInternalError(w, "Something went wrong")
	}
}
