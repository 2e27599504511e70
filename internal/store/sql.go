// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Dialect selects the SQL flavour used by SQLKV.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite3"
	DialectMySQL  Dialect = "mysql"
)

// SQLKV stores entries in the kv table created by the embedded migrations.
type SQLKV struct {
	db      *sql.DB
	dialect Dialect
	upsert  string
	owned   bool
	closed  atomic.Bool
}

// NewSQLKV wraps an already migrated database. The caller keeps ownership of db.
func NewSQLKV(db *sql.DB, dialect Dialect) (*SQLKV, error) {
	var upsert string
	switch dialect {
	case DialectSQLite:
		upsert = `INSERT INTO kv (name, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	case DialectMySQL:
		upsert = `INSERT INTO kv (name, value, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)`
	default:
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}
	return &SQLKV{db: db, dialect: dialect, upsert: upsert}, nil
}

// DB returns the underlying database handle.
func (s *SQLKV) DB() *sql.DB {
	return s.db
}

// Dialect reports which SQL flavour the store speaks.
func (s *SQLKV) Dialect() Dialect {
	return s.dialect
}

// Get retrieves the value stored under key.
func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE name = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	return value, nil
}

// Put writes value under key.
func (s *SQLKV) Put(ctx context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if value == nil {
		value = []byte{}
	}

	if _, err := s.db.ExecContext(ctx, s.upsert, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLKV) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE name = ?`, key); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Close marks the store closed and closes the database when the store opened it.
func (s *SQLKV) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.owned {
		return s.db.Close()
	}
	return nil
}
