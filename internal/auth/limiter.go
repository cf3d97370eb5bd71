// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
)

// Login throttling defaults.
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// RateLimiter counts failed logins per IP in the login_attempts table.
type RateLimiter struct {
	queries     *store.Queries
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// NewRateLimiter creates a limiter that blocks an IP after maxAttempts
// failures within window. Non-positive values use the defaults.
func NewRateLimiter(db *sql.DB, maxAttempts int, window time.Duration) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RateLimiter{
		queries:     store.New(db),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Record stores one login attempt.
func (l *RateLimiter) Record(ctx context.Context, ip, username string, success bool) error {
	err := l.queries.CreateLoginAttempt(ctx, store.CreateLoginAttemptParams{
		IPAddress:   ip,
		Username:    username,
		Success:     success,
		AttemptedAt: l.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("recording login attempt: %w", err)
	}
	return nil
}

// Blocked reports whether ip has reached the failure limit in the window.
func (l *RateLimiter) Blocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.failures(ctx, ip)
	if err != nil {
		return false, err
	}
	return n >= int64(l.maxAttempts), nil
}

// Remaining returns how many failures ip may still make in the window.
func (l *RateLimiter) Remaining(ctx context.Context, ip string) (int, error) {
	n, err := l.failures(ctx, ip)
	if err != nil {
		return 0, err
	}
	return max(l.maxAttempts-int(n), 0), nil
}

func (l *RateLimiter) failures(ctx context.Context, ip string) (int64, error) {
	n, err := l.queries.CountFailedLoginAttemptsByIP(ctx, store.CountFailedLoginAttemptsByIPParams{
		IPAddress: ip,
		Since:     l.now().Add(-l.window).UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("counting failed logins: %w", err)
	}
	return n, nil
}

// Clear forgets the failures of ip.
func (l *RateLimiter) Clear(ctx context.Context, ip string) error {
	if err := l.queries.DeleteFailedLoginAttemptsByIP(ctx, ip); err != nil {
		return fmt.Errorf("clearing failed logins: %w", err)
	}
	return nil
}

// Prune deletes attempts older than olderThan and returns how many.
func (l *RateLimiter) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := l.queries.DeleteLoginAttemptsBefore(ctx, l.now().Add(-olderThan).UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning login attempts: %w", err)
	}
	return n, nil
}
