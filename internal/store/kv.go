// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides the key-value storage substrate behind the record
// store: SQLite, MySQL, Redis and in-memory drivers.
package store

import (
	"context"
)

// KV is a durable string-keyed blob store.
// All implementations must be safe for concurrent use.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Error represents an error type for store operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrNotFound indicates the key has never been written or was deleted.
	ErrNotFound Error = "key not found"

	// ErrClosed indicates the store has been closed.
	ErrClosed Error = "store closed"
)
