// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createSecurityLog = `
INSERT INTO security_log (event_type, ip_address, username, country, user_agent, details, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateSecurityLogParams struct {
	EventType string
	IPAddress string
	Username  string
	Country   string
	UserAgent string
	Details   string
	CreatedAt time.Time
}

func (q *Queries) CreateSecurityLog(ctx context.Context, arg CreateSecurityLogParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createSecurityLog,
		arg.EventType,
		arg.IPAddress,
		arg.Username,
		arg.Country,
		arg.UserAgent,
		arg.Details,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listSecurityLog = `
SELECT id, event_type, ip_address, username, country, user_agent, details, created_at
FROM security_log
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`

type ListSecurityLogParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListSecurityLog(ctx context.Context, arg ListSecurityLogParams) ([]SecurityLog, error) {
	rows, err := q.db.QueryContext(ctx, listSecurityLog, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []SecurityLog
	for rows.Next() {
		var i SecurityLog
		if err := rows.Scan(
			&i.ID,
			&i.EventType,
			&i.IPAddress,
			&i.Username,
			&i.Country,
			&i.UserAgent,
			&i.Details,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countSecurityLog = `SELECT COUNT(*) FROM security_log`

func (q *Queries) CountSecurityLog(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSecurityLog)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countSecurityLogByType = `SELECT COUNT(*) FROM security_log WHERE event_type = ?`

func (q *Queries) CountSecurityLogByType(ctx context.Context, eventType string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSecurityLogByType, eventType)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteSecurityLogBefore = `DELETE FROM security_log WHERE created_at < ?`

func (q *Queries) DeleteSecurityLogBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSecurityLogBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
