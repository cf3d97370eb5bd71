// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const listSettings = `
SELECT id, setting_name, setting_value, updated_at
FROM settings
ORDER BY setting_name
`

func (q *Queries) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := q.db.QueryContext(ctx, listSettings)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Setting
	for rows.Next() {
		var i Setting
		if err := rows.Scan(&i.ID, &i.SettingName, &i.SettingValue, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getSetting = `
SELECT id, setting_name, setting_value, updated_at
FROM settings WHERE setting_name = ?
`

func (q *Queries) GetSetting(ctx context.Context, name string) (Setting, error) {
	row := q.db.QueryRowContext(ctx, getSetting, name)
	var i Setting
	err := row.Scan(&i.ID, &i.SettingName, &i.SettingValue, &i.UpdatedAt)
	return i, err
}

const upsertSetting = `
INSERT INTO settings (setting_name, setting_value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(setting_name) DO UPDATE SET
    setting_value = excluded.setting_value,
    updated_at = excluded.updated_at
`

type UpsertSettingParams struct {
	SettingName  string
	SettingValue string
	UpdatedAt    time.Time
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, arg.SettingName, arg.SettingValue, arg.UpdatedAt)
	return err
}
