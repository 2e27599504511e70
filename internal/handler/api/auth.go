// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/mileusna/useragent"

	"github.com/olegiv/meetroom-go/internal/middleware"
	"github.com/olegiv/meetroom-go/internal/model"
)

// LoginRequest is the body of POST /api/v1/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	User            *model.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	CanEdit         bool        `json:"canEdit"`
}

func sessionResponse(state model.AuthState) SessionResponse {
	return SessionResponse{
		User:            state.Actor(),
		IsAuthenticated: state.IsAuthenticated,
		CanEdit:         state.CanEdit(),
	}
}

// Login handles POST /api/v1/login. Any credentials sign in: the
// administrator's become admin, everything else becomes the guest.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	state, err := h.gate.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "Session")
		return
	}

	h.logLogin(r, state)
	WriteSuccess(w, sessionResponse(state))
}

// Logout handles POST /api/v1/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if err := h.gate.Logout(r.Context()); err != nil {
		h.writeServiceError(w, r, err, "Session")
		return
	}

	if user != nil && h.events != nil {
		_ = h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, "Signed out", user.Username, nil)
	}
	WriteSuccess(w, sessionResponse(model.AuthState{}))
}

// Me handles GET /api/v1/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, sessionResponse(middleware.GetAuth(r)))
}

// logLogin records the login with the client's browser, OS and country.
func (h *Handler) logLogin(r *http.Request, state model.AuthState) {
	if h.events == nil {
		return
	}

	ua := useragent.Parse(r.UserAgent())
	ip := clientIP(r)
	metadata := map[string]string{
		"role": state.User.Role,
		"ip":   ip,
	}
	if ua.Name != "" {
		metadata["browser"] = ua.Name
	}
	if ua.OS != "" {
		metadata["os"] = ua.OS
	}
	if country := h.geo.Country(ip); country != "" {
		metadata["country"] = country
	}

	message := "Signed in as guest"
	if state.CanEdit() {
		message = "Signed in as administrator"
	}
	if err := h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, message, state.User.Username, metadata); err != nil {
		h.logger.Error("failed to record login event", "error", err)
	}
}

// clientIP returns the request's remote host. chi's RealIP middleware has
// already applied X-Forwarded-For when it is in use.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
