// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/olegiv/meetroom-go/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyAuth holds the request's model.AuthState.
const ContextKeyAuth ContextKey = "auth"

// AuthSource returns the authentication state of the session carried by ctx.
// *auth.Gate satisfies it.
type AuthSource interface {
	Current(ctx context.Context) (model.AuthState, error)
}

// DeniedLogger records refused requests. *service.EventService satisfies it.
type DeniedLogger interface {
	LogAuthEvent(ctx context.Context, level, message, actor string, metadata map[string]string) error
}

// LoadAuth puts the session's auth state into the request context. It must
// run inside the session manager's LoadAndSave.
func LoadAuth(src AuthSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state, err := src.Current(r.Context())
			if err != nil {
				slog.Error("loading session", "category", model.EventCategoryAuth, "error", err)
				writeError(w, http.StatusInternalServerError, "internal_error", "Session unavailable")
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyAuth, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAuth returns the auth state stored by LoadAuth, or the signed-out state.
func GetAuth(r *http.Request) model.AuthState {
	state, _ := r.Context().Value(ContextKeyAuth).(model.AuthState)
	return state
}

// GetUser returns the signed-in user, or nil.
func GetUser(r *http.Request) *model.User {
	return GetAuth(r).Actor()
}

// RequireAuth rejects requests without a signed-in session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Sign in first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose session cannot edit. Refusals of
// signed-in users are logged and, when events is set, recorded as auth events.
func RequireAdmin(events DeniedLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := GetAuth(r)
			if state.CanEdit() {
				next.ServeHTTP(w, r)
				return
			}

			user := state.Actor()
			if user == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Sign in first")
				return
			}

			slog.Warn("access denied",
				"category", model.EventCategoryAuth,
				"status", http.StatusForbidden,
				"method", r.Method,
				"path", r.URL.Path,
				"user", user.Username,
				"user_role", user.Role,
			)
			if events != nil {
				_ = events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Access denied: administrator only", user.Username, map[string]string{
					"method": r.Method,
					"path":   r.URL.Path,
				})
			}

			writeError(w, http.StatusForbidden, "forbidden", "Only the administrator can do this")
		})
	}
}
