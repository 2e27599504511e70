// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/store"
)

func newTestGate(t *testing.T, sessions SessionStore) *Gate {
	t.Helper()
	creds, err := NewAdminCredentials("admin", "admin")
	if err != nil {
		t.Fatalf("NewAdminCredentials: %v", err)
	}
	return NewGate(creds, sessions, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGate_Login(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		wantAdmin bool
	}{
		{name: "admin", username: "admin", password: "admin", wantAdmin: true},
		{name: "case-insensitive username", username: "Admin", password: "admin", wantAdmin: true},
		{name: "padded username is not trimmed", username: " admin", password: "admin", wantAdmin: false},
		{name: "wrong password", username: "admin", password: "Admin", wantAdmin: false},
		{name: "empty", username: "", password: "", wantAdmin: false},
		{name: "other user", username: "bob", password: "admin", wantAdmin: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := newTestGate(t, NewKVSessions(store.NewMemoryKV()))

			state, err := gate.Login(context.Background(), tt.username, tt.password)
			if err != nil {
				t.Fatalf("Login error: %v", err)
			}
			if !state.IsAuthenticated {
				t.Fatal("login must always authenticate")
			}
			if state.CanEdit() != tt.wantAdmin {
				t.Errorf("CanEdit() = %v, want %v", state.CanEdit(), tt.wantAdmin)
			}

			want := model.GuestUser
			if tt.wantAdmin {
				want = model.AdminUser
			}
			if *state.User != want {
				t.Errorf("user = %+v, want %+v", *state.User, want)
			}
		})
	}
}

func TestGate_SessionSurvivesRestart(t *testing.T) {
	kv := store.NewMemoryKV()
	ctx := context.Background()

	if _, err := newTestGate(t, NewKVSessions(kv)).Login(ctx, "admin", "admin"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	restarted := newTestGate(t, NewKVSessions(kv))
	state, err := restarted.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if !state.CanEdit() {
		t.Errorf("restored state = %+v, want admin session", state)
	}

	if err := restarted.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	state, _ = restarted.Current(ctx)
	if state.IsAuthenticated {
		t.Error("state should be signed out after logout")
	}
	if _, err := kv.Get(ctx, SessionKey); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("session key still present: %v", err)
	}
}

func TestKVSessions_ReadsBrowserBlob(t *testing.T) {
	kv := store.NewMemoryKV()
	ctx := context.Background()
	_ = kv.Put(ctx, SessionKey, []byte(`{"user":{"username":"khach","role":"user","displayName":"Thành viên phòng họp"},"isAuthenticated":true}`))

	state, err := NewKVSessions(kv).Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !state.IsAuthenticated || state.CanEdit() || state.User.Username != "khach" {
		t.Errorf("state = %+v", state)
	}
}

func TestKVSessions_MalformedMeansSignedOut(t *testing.T) {
	kv := store.NewMemoryKV()
	ctx := context.Background()

	for _, raw := range []string{"{", `{"isAuthenticated":true}`, `{"user":{"username":"admin","role":"admin"},"isAuthenticated":false}`} {
		_ = kv.Put(ctx, SessionKey, []byte(raw))
		state, err := NewKVSessions(kv).Load(ctx)
		if err != nil {
			t.Fatalf("Load(%s): %v", raw, err)
		}
		if state.IsAuthenticated {
			t.Errorf("Load(%s) = %+v, want signed out", raw, state)
		}
	}
}

type brokenSessions struct{}

func (brokenSessions) Load(context.Context) (model.AuthState, error) { return model.AuthState{}, nil }
func (brokenSessions) Save(context.Context, model.AuthState) error   { return errors.New("read-only") }
func (brokenSessions) Clear(context.Context) error                    { return nil }

func TestGate_LoginPersistenceError(t *testing.T) {
	gate := newTestGate(t, brokenSessions{})
	if _, err := gate.Login(context.Background(), "bob", ""); err == nil {
		t.Error("expected persistence error")
	}
}

func TestGate_UnusableHashFallsBackToGuest(t *testing.T) {
	gate := NewGate(AdminCredentials{Username: "admin", PasswordHash: "not-a-hash"}, NewKVSessions(store.NewMemoryKV()), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if u := gate.Resolve("admin", "admin"); u.IsAdmin() {
		t.Error("unusable hash must not grant admin")
	}
}

func TestSCSSessions(t *testing.T) {
	sm := scs.New()
	sm.Store = memstore.New()

	gate := newTestGate(t, NewSCSSessions(sm))

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if _, err := gate.Login(r.Context(), r.URL.Query().Get("u"), r.URL.Query().Get("p")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		state, _ := gate.Current(r.Context())
		switch {
		case state.CanEdit():
			_, _ = io.WriteString(w, "admin")
		case state.IsAuthenticated:
			_, _ = io.WriteString(w, "guest")
		default:
			_, _ = io.WriteString(w, "anonymous")
		}
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = gate.Logout(r.Context())
	})
	handler := sm.LoadAndSave(mux)

	do := func(path string, cookies []*http.Cookie) (*httptest.ResponseRecorder, []*http.Cookie) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if got := rec.Result().Cookies(); len(got) > 0 {
			return rec, got
		}
		return rec, cookies
	}

	rec, _ := do("/me", nil)
	if rec.Body.String() != "anonymous" {
		t.Fatalf("/me without session = %q", rec.Body.String())
	}

	_, cookies := do("/login?u=Admin&p=admin", nil)
	if len(cookies) == 0 {
		t.Fatal("login did not set a session cookie")
	}

	rec, cookies = do("/me", cookies)
	if rec.Body.String() != "admin" {
		t.Errorf("/me after admin login = %q", rec.Body.String())
	}

	_, cookies = do("/logout", cookies)
	rec, _ = do("/me", cookies)
	if rec.Body.String() != "anonymous" {
		t.Errorf("/me after logout = %q", rec.Body.String())
	}
}
