// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config selects and configures a storage driver.
type Config struct {
	// Driver is one of sqlite, mysql, redis or memory.
	Driver string

	SQLitePath  string
	MySQLDSN    string
	RedisURL    string
	RedisPrefix string
}

// Backend is an opened storage substrate.
type Backend struct {
	KV KV

	// SQLite is set only for the sqlite driver; the session manager stores
	// its sessions there.
	SQLite *sql.DB
}

// Close releases the substrate.
func (b *Backend) Close() error {
	return b.KV.Close()
}

// Open connects to the configured driver and runs its migrations.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		db, err := NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := MigrateSQLite(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		kv, _ := NewSQLKV(db, DialectSQLite)
		kv.owned = true
		return &Backend{KV: kv, SQLite: db}, nil

	case DriverMySQL:
		db, err := NewMySQLDB(cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		if err := MigrateMySQL(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		kv, _ := NewSQLKV(db, DialectMySQL)
		kv.owned = true
		return &Backend{KV: kv}, nil

	case DriverRedis:
		kv, err := NewRedisKV(ctx, RedisOptions{URL: cfg.RedisURL, Prefix: cfg.RedisPrefix})
		if err != nil {
			return nil, err
		}
		return &Backend{KV: kv}, nil

	case DriverMemory:
		return &Backend{KV: NewMemoryKV()}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
