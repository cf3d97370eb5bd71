// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	LastLogin    sql.NullTime
	CreatedAt    time.Time
}

type LoginAttempt struct {
	ID          int64
	IPAddress   string
	Username    string
	Success     bool
	AttemptedAt time.Time
}

type SecurityLog struct {
	ID        int64
	EventType string
	IPAddress string
	Username  string
	Country   string
	UserAgent string
	Details   string
	CreatedAt time.Time
}

type Setting struct {
	ID           int64
	SettingName  string
	SettingValue string
	UpdatedAt    time.Time
}
