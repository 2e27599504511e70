// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/store"
)

// SessionKey is the storage key of the single persisted session,
// shared with the browser app's localStorage layout.
const SessionKey = "meeting_auth"

// KVSessions keeps one session in the storage substrate, so a signed-in
// state survives restarts of a single-user client.
type KVSessions struct {
	kv store.KV
}

// NewKVSessions creates a KVSessions.
func NewKVSessions(kv store.KV) *KVSessions {
	return &KVSessions{kv: kv}
}

// Load returns the stored state. Absent or unreadable entries mean signed out.
func (s *KVSessions) Load(ctx context.Context) (model.AuthState, error) {
	raw, err := s.kv.Get(ctx, SessionKey)
	if errors.Is(err, store.ErrNotFound) {
		return model.AuthState{}, nil
	}
	if err != nil {
		return model.AuthState{}, fmt.Errorf("reading session: %w", err)
	}

	var state model.AuthState
	if err := json.Unmarshal(raw, &state); err != nil {
		return model.AuthState{}, nil
	}
	return normalize(state), nil
}

// Save writes state.
func (s *KVSessions) Save(ctx context.Context, state model.AuthState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, SessionKey, raw)
}

// Clear removes the stored session.
func (s *KVSessions) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, SessionKey)
}

// Session keys used by SCSSessions.
const (
	SessionKeyUsername    = "username"
	SessionKeyRole        = "role"
	SessionKeyDisplayName = "display_name"
)

// SCSSessions keeps the state in a per-browser scs cookie session.
// ctx must carry a session loaded by SessionManager.LoadAndSave.
type SCSSessions struct {
	sm *scs.SessionManager
}

// NewSCSSessions creates an SCSSessions.
func NewSCSSessions(sm *scs.SessionManager) *SCSSessions {
	return &SCSSessions{sm: sm}
}

// Load returns the state stored in the request's session.
func (s *SCSSessions) Load(ctx context.Context) (model.AuthState, error) {
	username := s.sm.GetString(ctx, SessionKeyUsername)
	if username == "" {
		return model.AuthState{}, nil
	}
	return model.SignedIn(model.User{
		Username:    username,
		Role:        s.sm.GetString(ctx, SessionKeyRole),
		DisplayName: s.sm.GetString(ctx, SessionKeyDisplayName),
	}), nil
}

// Save renews the session token and stores state.
func (s *SCSSessions) Save(ctx context.Context, state model.AuthState) error {
	state = normalize(state)
	if err := s.sm.RenewToken(ctx); err != nil {
		return err
	}
	if !state.IsAuthenticated {
		s.remove(ctx)
		return nil
	}
	s.sm.Put(ctx, SessionKeyUsername, state.User.Username)
	s.sm.Put(ctx, SessionKeyRole, state.User.Role)
	s.sm.Put(ctx, SessionKeyDisplayName, state.User.DisplayName)
	return nil
}

// Clear destroys the session.
func (s *SCSSessions) Clear(ctx context.Context) error {
	return s.sm.Destroy(ctx)
}

func (s *SCSSessions) remove(ctx context.Context) {
	s.sm.Remove(ctx, SessionKeyUsername)
	s.sm.Remove(ctx, SessionKeyRole)
	s.sm.Remove(ctx, SessionKeyDisplayName)
}
