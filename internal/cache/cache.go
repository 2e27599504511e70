// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache holds derived, recomputable bytes (preview thumbnails)
// in memory or in Redis.
package cache

import (
	"context"
	"time"
)

// Cache defines the interface for cache implementations.
// All implementations must be thread-safe.
type Cache interface {
	// Get returns the value, or ErrCacheMiss if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl; a zero ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key from the cache.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Error represents an error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found in cache or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set.
	RedisURL string

	// Prefix is the key prefix for Redis.
	Prefix string

	DefaultTTL time.Duration

	// MaxEntries bounds the memory cache (0 = unlimited).
	MaxEntries int
}

// New creates a Redis cache when a URL is configured and a memory cache otherwise.
func New(ctx context.Context, cfg Config) (Cache, error) {
	if cfg.RedisURL != "" {
		return NewRedisCache(ctx, cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
	}
	return NewMemoryCache(cfg.DefaultTTL, cfg.MaxEntries), nil
}
