// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
)

// MemoryKV keeps entries in process memory. Used by tests and demo mode;
// nothing survives a restart.
type MemoryKV struct {
	data   sync.Map
	closed atomic.Bool
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{}
}

// Get returns a copy of the value stored under key.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	v, ok := m.data.Load(key)
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v.([]byte)), nil
}

// Put stores a copy of value under key.
func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if value == nil {
		value = []byte{}
	}
	m.data.Store(key, bytes.Clone(value))
	return nil
}

// Delete removes key.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.data.Delete(key)
	return nil
}

// Close marks the store closed.
func (m *MemoryKV) Close() error {
	m.closed.Store(true)
	return nil
}
