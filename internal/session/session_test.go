// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/3ddreamcrafts/dreamcrafts/internal/testutil"
)

func TestNew_DevMode(t *testing.T) {
	db := testutil.TestDB(t)

	sm := New(db, true, time.Hour)
	defer Close(sm)

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Cookie.Name != cookieName {
		t.Errorf("Cookie.Name = %q, want %q", sm.Cookie.Name, cookieName)
	}
}

func TestNew_ProductionMode(t *testing.T) {
	db := testutil.TestDB(t)

	sm := New(db, false, time.Hour)
	defer Close(sm)

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.Name != secureCookieName {
		t.Errorf("Cookie.Name = %q, want %q", sm.Cookie.Name, secureCookieName)
	}
	if sm.Cookie.Path != "/" {
		t.Errorf("Cookie.Path = %q, want /", sm.Cookie.Path)
	}
}

func TestNew_SessionSettings(t *testing.T) {
	db := testutil.TestDB(t)

	sm := New(db, true, 0)
	defer Close(sm)

	if sm.Lifetime != time.Hour {
		t.Errorf("Lifetime = %v, want 1h default", sm.Lifetime)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	db := testutil.TestDB(t)
	sm := New(db, true, time.Hour)
	defer Close(sm)

	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sm.Put(ctx, "user_id", int64(7))

	token, _, err := sm.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sessions WHERE token = ?", token).Scan(&n); err != nil {
		t.Fatalf("counting sessions: %v", err)
	}
	if n != 1 {
		t.Fatalf("sessions rows = %d, want 1", n)
	}

	ctx2, err := sm.Load(context.Background(), token)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := sm.GetInt64(ctx2, "user_id"); got != 7 {
		t.Errorf("user_id = %d, want 7", got)
	}
}

func TestCloseStopsCleanup(t *testing.T) {
	db := testutil.TestDB(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sm := New(db, true, time.Hour)
	Close(sm)
}
