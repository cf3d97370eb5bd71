// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// SeedContent inserts a small set of demo content when the content tables are
// empty. It is idempotent: tables that already hold rows are left alone.
func SeedContent(ctx context.Context, db *sql.DB, now time.Time) error {
	now = now.UTC()
	d := Wrap(db)

	return d.WithTx(ctx, func(tx *Tx) error {
		seeds := []struct {
			table string
			rows  [][]any
			query string
		}{
			{
				table: "featured_prints",
				query: `INSERT INTO featured_prints (title, description, image_path, is_active, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?, ?)`,
				rows: [][]any{
					{"Articulated Dragon", "A fully articulated dragon printed in silk PLA.", "", 1, now, now},
					{"Lattice Vase", "Spiral lattice vase in translucent PETG.", "", 0, now, now},
				},
			},
			{
				table: "craft_shows",
				query: `INSERT INTO craft_shows (title, event_date, location, description, is_active, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rows: [][]any{
					{"Spring Makers Market", now.AddDate(0, 1, 0).Format(time.DateOnly), "Town Hall", "Come say hi at our booth.", 1, now, now},
					{"Summer Art Fair", now.AddDate(0, 3, 0).Format(time.DateOnly), "Riverside Park", "", 1, now, now},
				},
			},
			{
				table: "news_articles",
				query: `INSERT INTO news_articles (title, content, published_date, is_published, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?, ?)`,
				rows: [][]any{
					{"Welcome to 3DDreamCrafts", "We design and print **one-of-a-kind** pieces.", now, 1, now, now},
				},
			},
		}

		for _, s := range seeds {
			var count int64
			row := tx.Raw().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table)
			if err := row.Scan(&count); err != nil {
				return fmt.Errorf("counting %s: %w", s.table, err)
			}
			if count > 0 {
				continue
			}
			for _, args := range s.rows {
				if _, err := tx.Execute(ctx, s.query, args...); err != nil {
					return fmt.Errorf("seeding %s: %w", s.table, err)
				}
			}
			slog.Info("seeded demo content", "table", s.table, "rows", len(s.rows))
		}
		return nil
	})
}
