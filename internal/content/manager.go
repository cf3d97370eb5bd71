// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content implements create, read, update, delete, list and toggle
// operations over the site's content kinds, driven by one field schema per
// kind.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
)

// Manager runs content operations against the database.
type Manager struct {
	db  *store.DB
	now func() time.Time
}

// NewManager creates a content manager.
func NewManager(db *store.DB) *Manager {
	return &Manager{db: db, now: time.Now}
}

// WithClock replaces the manager's time source and returns the manager.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) timestamp() time.Time {
	return m.now().UTC()
}

// Create validates in and inserts a new row. created_at and updated_at are
// both set to the current time.
func (m *Manager) Create(ctx context.Context, in Input) (int64, error) {
	kind := in.Kind()
	now := m.timestamp()

	cols, err := validate(kind, in.Values(), true, now)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(cols)+2)
	marks := make([]string, 0, len(cols)+2)
	args := make([]any, 0, len(cols)+2)
	for _, c := range cols {
		names = append(names, c.name)
		marks = append(marks, "?")
		args = append(args, c.value)
	}
	names = append(names, "created_at", "updated_at")
	marks = append(marks, "?", "?")
	args = append(args, now, now)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		kind.Table(), strings.Join(names, ", "), strings.Join(marks, ", "))

	id, err := m.db.Execute(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", kind, err)
	}
	return id, nil
}

// Update validates the supplied fields of in and writes them to row id,
// bumping updated_at. It succeeds when nothing changed, including when no row
// has that id.
func (m *Manager) Update(ctx context.Context, kind model.Kind, id int64, in Input) error {
	if in.Kind() != kind {
		return fmt.Errorf("%w: %s input for %s", model.ErrInvalidKind, in.Kind(), kind)
	}
	now := m.timestamp()

	cols, err := validate(kind, in.Values(), false, now)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for _, c := range cols {
		sets = append(sets, c.name+" = ?")
		args = append(args, c.value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", kind.Table(), strings.Join(sets, ", "))
	if _, err := m.db.Execute(ctx, query, args...); err != nil {
		return fmt.Errorf("updating %s %d: %w", kind, id, err)
	}
	return nil
}

// Delete removes row id. It returns store.ErrNotFound when there was no such
// row.
func (m *Manager) Delete(ctx context.Context, kind model.Kind, id int64) error {
	if _, err := schemaFor(kind); err != nil {
		return err
	}
	n, err := m.db.Execute(ctx, "DELETE FROM "+kind.Table()+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", kind, id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Get returns row id of kind.
func (m *Manager) Get(ctx context.Context, kind model.Kind, id int64) (store.Row, error) {
	if _, err := schemaFor(kind); err != nil {
		return nil, err
	}
	row, err := m.db.QueryOne(ctx, "SELECT * FROM "+kind.Table()+" WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting %s %d: %w", kind, id, err)
	}
	return row, nil
}

// List returns one page of rows of kind, newest first.
func (m *Manager) List(ctx context.Context, kind model.Kind, page, perPage int) (Page[store.Row], error) {
	if _, err := schemaFor(kind); err != nil {
		return Page[store.Row]{}, err
	}
	return m.paginate(ctx, kind.Table(), "", "id DESC", page, perPage)
}

// paginate runs a COUNT and a LIMIT/OFFSET query over table. where and order
// are compile-time SQL fragments.
func (m *Manager) paginate(ctx context.Context, table, where, order string, page, perPage int) (Page[store.Row], error) {
	page, perPage, offset := Window(page, perPage)

	filter := ""
	if where != "" {
		filter = " WHERE " + where
	}

	countRow, err := m.db.QueryOne(ctx, "SELECT COUNT(*) AS n FROM "+table+filter)
	if err != nil {
		return Page[store.Row]{}, fmt.Errorf("counting %s: %w", table, err)
	}
	total := countRow.Int64("n")

	rows, err := m.db.Query(ctx,
		"SELECT * FROM "+table+filter+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		perPage, offset)
	if err != nil {
		return Page[store.Row]{}, fmt.Errorf("listing %s: %w", table, err)
	}
	return NewPage(rows, total, page, perPage), nil
}

// Toggle flips a boolean column of row id and returns its new value. An empty
// column selects the kind's visibility flag.
func (m *Manager) Toggle(ctx context.Context, kind model.Kind, id int64, col string) (bool, error) {
	if _, err := schemaFor(kind); err != nil {
		return false, err
	}
	if col == "" {
		col = kind.FlagColumn()
	}
	f, ok := lookupField(kind, col)
	if !ok || f.typ != fieldFlag {
		return false, ValidationErrors{{Field: col, Message: fmt.Sprintf("Unknown column %q", col)}}
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s = CASE WHEN %s = 0 THEN 1 ELSE 0 END, updated_at = ? WHERE id = ? RETURNING %s AS value",
		kind.Table(), f.column, f.column, f.column)
	row, err := m.db.QueryOne(ctx, query, m.timestamp(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("toggling %s %d: %w", kind, id, err)
	}
	return row.Bool("value"), nil
}

// Feature makes print id the only active featured print.
func (m *Manager) Feature(ctx context.Context, id int64) error {
	now := m.timestamp()
	return m.db.WithTx(ctx, func(tx *store.Tx) error {
		n, err := tx.Execute(ctx,
			"UPDATE featured_prints SET is_active = 1, updated_at = ? WHERE id = ?", now, id)
		if err != nil {
			return fmt.Errorf("activating print %d: %w", id, err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		if _, err := tx.Execute(ctx,
			"UPDATE featured_prints SET is_active = 0, updated_at = ? WHERE id <> ? AND is_active = 1", now, id); err != nil {
			return fmt.Errorf("deactivating other prints: %w", err)
		}
		return nil
	})
}

// KindStats counts rows of one kind.
type KindStats struct {
	Kind    model.Kind
	Total   int64
	Visible int64
}

// Stats counts all and publicly visible rows per content kind.
func (m *Manager) Stats(ctx context.Context) ([]KindStats, error) {
	var stats []KindStats
	for _, kind := range model.ContentKinds() {
		row, err := m.db.QueryOne(ctx, fmt.Sprintf(
			"SELECT COUNT(*) AS total, COALESCE(SUM(%s), 0) AS visible FROM %s",
			kind.FlagColumn(), kind.Table()))
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", kind, err)
		}
		stats = append(stats, KindStats{
			Kind:    kind,
			Total:   row.Int64("total"),
			Visible: row.Int64("visible"),
		})
	}
	return stats, nil
}
