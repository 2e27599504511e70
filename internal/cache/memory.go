// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryCache is a thread-safe in-memory cache. When full, expired entries
// are dropped first and then the entry closest to expiry.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	maxEntries int
	closed     bool
	now        func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a memory cache.
func NewMemoryCache(defaultTTL time.Duration, maxEntries int) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get retrieves a copy of the value stored under key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheClosed
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, ErrCacheMiss
	}
	return bytes.Clone(e.value), nil
}

// Set stores a copy of value.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evict()
	}
	c.entries[key] = memoryEntry{value: bytes.Clone(value), expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes a key from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	delete(c.entries, key)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet dropped.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close releases the entries.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = nil
	return nil
}

// evict makes room for one entry. Caller must hold c.mu.
func (c *MemoryCache) evict() {
	now := c.now()
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.expiresAt
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

var _ Cache = (*MemoryCache)(nil)
