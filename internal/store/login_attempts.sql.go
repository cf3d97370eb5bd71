// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createLoginAttempt = `
INSERT INTO login_attempts (ip_address, username, success, attempted_at)
VALUES (?, ?, ?, ?)
`

type CreateLoginAttemptParams struct {
	IPAddress   string
	Username    string
	Success     bool
	AttemptedAt time.Time
}

func (q *Queries) CreateLoginAttempt(ctx context.Context, arg CreateLoginAttemptParams) error {
	_, err := q.db.ExecContext(ctx, createLoginAttempt, arg.IPAddress, arg.Username, arg.Success, arg.AttemptedAt)
	return err
}

const countFailedLoginAttemptsByIP = `
SELECT COUNT(*) FROM login_attempts
WHERE ip_address = ? AND success = 0 AND attempted_at > ?
`

type CountFailedLoginAttemptsByIPParams struct {
	IPAddress string
	Since     time.Time
}

func (q *Queries) CountFailedLoginAttemptsByIP(ctx context.Context, arg CountFailedLoginAttemptsByIPParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countFailedLoginAttemptsByIP, arg.IPAddress, arg.Since)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countFailedLoginAttemptsByUsername = `
SELECT COUNT(*) FROM login_attempts
WHERE username = ? AND success = 0 AND attempted_at > ?
`

type CountFailedLoginAttemptsByUsernameParams struct {
	Username string
	Since    time.Time
}

func (q *Queries) CountFailedLoginAttemptsByUsername(ctx context.Context, arg CountFailedLoginAttemptsByUsernameParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countFailedLoginAttemptsByUsername, arg.Username, arg.Since)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteFailedLoginAttemptsByIP = `DELETE FROM login_attempts WHERE ip_address = ? AND success = 0`

func (q *Queries) DeleteFailedLoginAttemptsByIP(ctx context.Context, ipAddress string) error {
	_, err := q.db.ExecContext(ctx, deleteFailedLoginAttemptsByIP, ipAddress)
	return err
}

const deleteLoginAttemptsBefore = `DELETE FROM login_attempts WHERE attempted_at < ?`

func (q *Queries) DeleteLoginAttemptsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteLoginAttemptsBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
