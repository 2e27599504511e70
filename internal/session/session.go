// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the cookie session manager of the HTTP server.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

// Lifetime is the absolute lifetime of a session.
const Lifetime = 24 * time.Hour

// New creates a session manager. Sessions live in the SQLite sessions table
// when db is set and in process memory otherwise.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	if db != nil {
		sm.Store = sqlite3store.New(db)
	} else {
		sm.Store = memstore.New()
	}

	sm.Lifetime = Lifetime
	sm.Cookie.Name = "meetroom_session"
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	// __Host- cookies must be Secure with Path=/ and no Domain.
	if !isDev {
		sm.Cookie.Name = "__Host-meetroom_session"
	}

	return sm
}
