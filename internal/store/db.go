// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a query that expects a row finds none.
var ErrNotFound = errors.New("not found")

// Row is a single result row keyed by column name.
type Row map[string]any

// Int64 returns the column as int64, or 0 if absent or not numeric.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// Bool returns the column as a 0/1 flag.
func (r Row) Bool(col string) bool {
	return r.Int64(col) != 0
}

// String returns the column as a string, or "" if absent.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Time returns the column as a time. Drivers hand back DATETIME columns either
// as time.Time or as text depending on how the value was written.
func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB wraps a *sql.DB with map-based query helpers. Every helper takes the SQL
// text and its arguments separately; callers must never build values into the
// SQL string.
type DB struct {
	db *sql.DB
	conn
}

// Tx is a DB transaction with the same helpers as DB.
type Tx struct {
	tx *sql.Tx
	conn
}

type conn struct {
	q queryer
}

// Wrap returns a DB helper around db.
func Wrap(db *sql.DB) *DB {
	return &DB{db: db, conn: conn{q: db}}
}

// SQL returns the underlying *sql.DB.
func (d *DB) SQL() *sql.DB {
	return d.db
}

// Query runs a statement and returns every row as a Row.
func (c conn) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// QueryOne runs a statement and returns its first row, or ErrNotFound.
func (c conn) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := c.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Execute runs a statement that returns no rows. For INSERT and REPLACE it
// returns the last insert id; otherwise the number of affected rows.
func (c conn) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	verb := strings.ToUpper(firstWord(query))
	if verb == "INSERT" || verb == "REPLACE" {
		return res.LastInsertId()
	}
	return res.RowsAffected()
}

// TableExists reports whether a table with the given name exists.
func (c conn) TableExists(ctx context.Context, name string) (bool, error) {
	rows, err := c.Query(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Begin starts a transaction.
func (d *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &Tx{tx: tx, conn: conn{q: tx}}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Raw returns the underlying *sql.Tx, e.g. for typed Queries.
func (t *Tx) Raw() *sql.Tx {
	return t.tx
}

// WithTx runs fn inside a transaction. The transaction is committed if fn
// returns nil and rolled back otherwise.
func (d *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := d.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
