// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package audit appends security events (logins, CSRF failures, rejected
// uploads) to the security_log table.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mileusna/useragent"

	"github.com/3ddreamcrafts/dreamcrafts/internal/content"
	"github.com/3ddreamcrafts/dreamcrafts/internal/geoip"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
)

// Event types.
const (
	LoginSuccess    = "login_success"
	LoginFailure    = "login_failure"
	LoginBlocked    = "login_blocked"
	Logout          = "logout"
	CSRFFailure     = "csrf_failure"
	UploadRejected  = "upload_rejected"
	PasswordChanged = "password_changed"
	UserCreated     = "user_created"
	LogWarning      = "log_warning"
)

// Event is one security-relevant occurrence.
type Event struct {
	Type      string
	IP        string
	Username  string
	UserAgent string
	Details   map[string]string
}

// Recorder writes events. A nil *Recorder discards them.
type Recorder struct {
	queries *store.Queries
	geo     *geoip.Lookup
	logger  *slog.Logger
	now     func() time.Time
}

// NewRecorder creates a recorder. geo may be nil.
func NewRecorder(db *sql.DB, geo *geoip.Lookup, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		queries: store.New(db),
		geo:     geo,
		logger:  logger,
		now:     time.Now,
	}
}

// Record appends e to the security log. Failures are logged and returned.
func (r *Recorder) Record(ctx context.Context, e Event) error {
	if r == nil {
		return nil
	}

	details := "{}"
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("encoding event details: %w", err)
		}
		details = string(b)
	}

	country := ""
	if r.geo != nil {
		country = r.geo.Country(e.IP)
	}

	_, err := r.queries.CreateSecurityLog(ctx, store.CreateSecurityLogParams{
		EventType: e.Type,
		IPAddress: e.IP,
		Username:  e.Username,
		Country:   country,
		UserAgent: SummarizeUserAgent(e.UserAgent),
		Details:   details,
		CreatedAt: r.now().UTC(),
	})
	if err != nil {
		r.logger.Error("writing security log", "event", e.Type, "error", err)
		return fmt.Errorf("recording %s: %w", e.Type, err)
	}
	return nil
}

// List returns one page of the security log, newest first.
func (r *Recorder) List(ctx context.Context, page, perPage int) (content.Page[store.SecurityLog], error) {
	page, perPage, offset := content.Window(page, perPage)

	total, err := r.queries.CountSecurityLog(ctx)
	if err != nil {
		return content.Page[store.SecurityLog]{}, fmt.Errorf("counting security log: %w", err)
	}
	items, err := r.queries.ListSecurityLog(ctx, store.ListSecurityLogParams{
		Limit:  int64(perPage),
		Offset: int64(offset),
	})
	if err != nil {
		return content.Page[store.SecurityLog]{}, fmt.Errorf("listing security log: %w", err)
	}
	return content.NewPage(items, total, page, perPage), nil
}

// Prune deletes entries older than the cutoff.
func (r *Recorder) Prune(ctx context.Context, before time.Time) (int64, error) {
	n, err := r.queries.DeleteSecurityLogBefore(ctx, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning security log: %w", err)
	}
	return n, nil
}

// SummarizeUserAgent reduces a raw User-Agent header to
// "Browser on OS (device)".
func SummarizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.Parse(raw)

	browser := ua.Name
	if browser == "" {
		browser = "Unknown"
	}
	os := ua.OS
	if os == "" {
		os = "Unknown"
	}

	device := "desktop"
	switch {
	case ua.Bot:
		device = "bot"
	case ua.Tablet:
		device = "tablet"
	case ua.Mobile:
		device = "mobile"
	}
	return fmt.Sprintf("%s on %s (%s)", browser, os, device)
}
