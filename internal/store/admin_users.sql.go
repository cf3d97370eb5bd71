// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createAdminUser = `
INSERT INTO admin_users (username, password_hash, created_at)
VALUES (?, ?, ?)
RETURNING id, username, password_hash, last_login, created_at
`

type CreateAdminUserParams struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func (q *Queries) CreateAdminUser(ctx context.Context, arg CreateAdminUserParams) (AdminUser, error) {
	row := q.db.QueryRowContext(ctx, createAdminUser, arg.Username, arg.PasswordHash, arg.CreatedAt)
	var i AdminUser
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.LastLogin, &i.CreatedAt)
	return i, err
}

const getAdminUserByUsername = `
SELECT id, username, password_hash, last_login, created_at
FROM admin_users WHERE username = ?
`

func (q *Queries) GetAdminUserByUsername(ctx context.Context, username string) (AdminUser, error) {
	row := q.db.QueryRowContext(ctx, getAdminUserByUsername, username)
	var i AdminUser
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.LastLogin, &i.CreatedAt)
	return i, err
}

const getAdminUserByID = `
SELECT id, username, password_hash, last_login, created_at
FROM admin_users WHERE id = ?
`

func (q *Queries) GetAdminUserByID(ctx context.Context, id int64) (AdminUser, error) {
	row := q.db.QueryRowContext(ctx, getAdminUserByID, id)
	var i AdminUser
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.LastLogin, &i.CreatedAt)
	return i, err
}

const countAdminUsers = `SELECT COUNT(*) FROM admin_users`

func (q *Queries) CountAdminUsers(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAdminUsers)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateAdminUserLastLogin = `UPDATE admin_users SET last_login = ? WHERE id = ?`

type UpdateAdminUserLastLoginParams struct {
	LastLogin sql.NullTime
	ID        int64
}

func (q *Queries) UpdateAdminUserLastLogin(ctx context.Context, arg UpdateAdminUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx, updateAdminUserLastLogin, arg.LastLogin, arg.ID)
	return err
}

const updateAdminUserPassword = `UPDATE admin_users SET password_hash = ? WHERE id = ?`

type UpdateAdminUserPasswordParams struct {
	PasswordHash string
	ID           int64
}

// UpdateAdminUserPassword returns the number of rows changed.
func (q *Queries) UpdateAdminUserPassword(ctx context.Context, arg UpdateAdminUserPasswordParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAdminUserPassword, arg.PasswordHash, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
