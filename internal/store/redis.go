// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores entries as plain Redis strings without expiry.
type RedisKV struct {
	client *redis.Client
	prefix string
	closed atomic.Bool
}

// RedisOptions configures the Redis driver.
type RedisOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Prefix is prepended to all keys (e.g., "meetroom:")
	Prefix string

	ConnectTimeout time.Duration
}

// NewRedisKV connects to Redis and verifies the connection.
func NewRedisKV(ctx context.Context, opts RedisOptions) (*RedisKV, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisKV{client: client, prefix: opts.Prefix}, nil
}

func (r *RedisKV) prefixKey(key string) string {
	return r.prefix + key
}

// Get retrieves the value stored under key.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	val, err := r.client.Get(ctx, r.prefixKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	return val, nil
}

// Put writes value under key with no expiry.
func (r *RedisKV) Put(ctx context.Context, key string, value []byte) error {
	if r.closed.Load() {
		return ErrClosed
	}

	if err := r.client.Set(ctx, r.prefixKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if r.closed.Load() {
		return ErrClosed
	}

	if err := r.client.Del(ctx, r.prefixKey(key)).Err(); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisKV) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.client.Close()
}
