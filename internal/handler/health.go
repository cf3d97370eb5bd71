// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/3ddreamcrafts/dreamcrafts/internal/version"
)

// HealthStatus is the /health response. Details are only filled in for
// logged in admins.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Version   *version.Info    `json:"version,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check is one health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health. It answers 503 when a check fails.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r.Context()),
		"uploads":  h.checkUploads(),
	}

	status := HealthStatus{Status: "healthy"}
	code := http.StatusOK
	for _, c := range checks {
		if c.Status != "healthy" {
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	if h.auth.IsAuthenticated(r.Context()) {
		now := time.Now().UTC()
		info := version.Get()
		status.Timestamp = &now
		status.Uptime = time.Since(h.started).Round(time.Second).String()
		status.Version = &info
		status.Checks = checks
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, code, status)
}

func (h *Handler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("health check: database ping failed", "error", err)
		return Check{Status: "unhealthy", Message: "database unreachable"}
	}
	var one int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		h.logger.Error("health check: database query failed", "error", err)
		return Check{Status: "unhealthy", Message: "database query failed"}
	}
	return Check{Status: "healthy", Latency: time.Since(start).Round(time.Microsecond).String()}
}

// checkUploads verifies the upload directory exists and is writable.
func (h *Handler) checkUploads() Check {
	root := h.uploads.Root()
	st, err := os.Stat(root)
	if err != nil || !st.IsDir() {
		return Check{Status: "unhealthy", Message: "upload directory missing"}
	}
	f, err := os.CreateTemp(root, ".health-*")
	if err != nil {
		return Check{Status: "unhealthy", Message: "upload directory not writable"}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(filepath.Clean(name))
	return Check{Status: "healthy"}
}
