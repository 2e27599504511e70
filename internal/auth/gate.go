// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/meetroom-go/internal/model"
)

// DefaultAdminUsername is the administrator login name.
const DefaultAdminUsername = "admin"

// SessionStore persists the authentication state of one session.
type SessionStore interface {
	Load(ctx context.Context) (model.AuthState, error)
	Save(ctx context.Context, state model.AuthState) error
	Clear(ctx context.Context) error
}

// AdminCredentials identify the single administrator.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

// NewAdminCredentials hashes password for username.
func NewAdminCredentials(username, password string) (AdminCredentials, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return AdminCredentials{}, err
	}
	return AdminCredentials{Username: username, PasswordHash: hash}, nil
}

// Gate resolves logins to one of two identities. There is no rejection
// path: anything that is not the administrator is the guest.
type Gate struct {
	admin    AdminCredentials
	sessions SessionStore
	logger   *slog.Logger
}

// NewGate creates a Gate.
func NewGate(admin AdminCredentials, sessions SessionStore, logger *slog.Logger) *Gate {
	if admin.Username == "" {
		admin.Username = DefaultAdminUsername
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{admin: admin, sessions: sessions, logger: logger}
}

// Resolve returns the identity for the given credentials without touching
// the session.
func (g *Gate) Resolve(username, password string) model.User {
	if !strings.EqualFold(username, g.admin.Username) {
		return model.GuestUser
	}

	ok, err := CheckPassword(password, g.admin.PasswordHash)
	if err != nil {
		g.logger.Error("admin password hash is unusable", "category", model.EventCategoryAuth, "error", err)
		return model.GuestUser
	}
	if !ok {
		return model.GuestUser
	}

	admin := model.AdminUser
	admin.Username = strings.ToLower(g.admin.Username)
	return admin
}

// Login signs the session in. Credentials never cause an error; only a
// failure to persist the session is returned.
func (g *Gate) Login(ctx context.Context, username, password string) (model.AuthState, error) {
	state := model.SignedIn(g.Resolve(username, password))
	if err := g.sessions.Save(ctx, state); err != nil {
		return model.AuthState{}, fmt.Errorf("saving session: %w", err)
	}
	return state, nil
}

// Logout clears the session.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Current returns the persisted state, or the signed-out state.
func (g *Gate) Current(ctx context.Context) (model.AuthState, error) {
	state, err := g.sessions.Load(ctx)
	if err != nil {
		return model.AuthState{}, err
	}
	return normalize(state), nil
}

// normalize treats a half-written state as signed out.
func normalize(state model.AuthState) model.AuthState {
	if !state.IsAuthenticated || state.User == nil || state.User.Username == "" {
		return model.AuthState{}
	}
	return state
}
