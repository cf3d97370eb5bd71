// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager backed by the
// sessions table.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

const (
	cookieName       = "dreamcrafts_session"
	secureCookieName = "__Host-dreamcrafts_session"
	cleanupInterval  = 5 * time.Minute
)

// New creates a session manager storing sessions in db. Sessions expire
// after lifetime regardless of activity.
func New(db *sql.DB, isDev bool, lifetime time.Duration) *scs.SessionManager {
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	sm := scs.New()
	sm.Store = sqlite3store.NewWithCleanupInterval(db, cleanupInterval)
	sm.Lifetime = lifetime
	sm.Cookie.Name = cookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Persist = false

	if !isDev {
		// The __Host- prefix requires Secure, Path=/ and no Domain.
		sm.Cookie.Name = secureCookieName
		sm.Cookie.Secure = true
	}
	return sm
}

// Close stops the store's expired-session cleanup goroutine.
func Close(sm *scs.SessionManager) {
	if s, ok := sm.Store.(*sqlite3store.SQLite3Store); ok {
		s.StopCleanup()
	}
}
