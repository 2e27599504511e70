// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/meetroom-go/internal/middleware"
)

// Routes mounts /health and /api/v1 on r. Every route runs inside the scs
// session so the access gate can read and write it.
func (h *Handler) Routes(r chi.Router, sm *scs.SessionManager) {
	var denied middleware.DeniedLogger
	if h.events != nil {
		denied = h.events
	}

	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		r.Use(middleware.LoadAuth(h.gate))

		r.Get("/health", h.Health)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)

				r.Get("/documents", h.ListDocuments)
				r.Get("/documents/{id}", h.GetDocument)
				r.Get("/documents/{id}/file", h.DocumentFile)
				r.Get("/documents/{id}/preview", h.DocumentPreview)
				r.Get("/attachments", h.ListAttachments)
				r.Get("/attachments/{id}/file", h.AttachmentFile)
				r.Get("/attachments/{id}/preview", h.AttachmentPreview)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(denied))

				r.Post("/documents", h.CreateDocument)
				r.Put("/documents/{id}", h.UpdateDocument)
				r.Delete("/documents/{id}", h.DeleteDocument)
				r.Post("/summaries", h.Summarize)
				r.Post("/attachments", h.CreateAttachment)
				r.Delete("/attachments/{id}", h.DeleteAttachment)
				r.Get("/events", h.ListEvents)
				r.Get("/export", h.Export)
				r.Post("/import", h.Import)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "No such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})
}
