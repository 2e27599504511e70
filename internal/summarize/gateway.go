// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package summarize turns meeting content into a short summary by calling an
// external text-generation service. Failures never reach the caller: they
// are logged and replaced by FallbackText.
package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/olegiv/meetroom-go/internal/model"
)

// FallbackText is returned whenever a summary could not be produced.
const FallbackText = "summary generation failed"

// DefaultLanguage is the language summaries are written in unless configured.
const DefaultLanguage = "Vietnamese"

// DefaultTimeout bounds one upstream call.
const DefaultTimeout = 30 * time.Second

// ErrRateLimited is logged when the local quota limiter rejects a call.
var ErrRateLimited = errors.New("summary rate limit exceeded")

// Client performs one completion request.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures a Gateway.
type Options struct {
	Language string
	Timeout  time.Duration

	// RatePerMinute limits upstream calls across all sessions; 0 disables the limit.
	RatePerMinute int
	Burst         int
}

// Gateway wraps a Client with a timeout, de-duplication of identical
// concurrent requests and a shared rate limit.
type Gateway struct {
	client   Client
	language string
	timeout  time.Duration
	limiter  *rate.Limiter
	group    singleflight.Group
	logger   *slog.Logger
}

// New creates a Gateway. A nil client makes every call return FallbackText.
func New(client Client, opts Options, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		client:   client,
		language: opts.Language,
		timeout:  opts.Timeout,
		logger:   logger,
	}
	if g.language == "" {
		g.language = DefaultLanguage
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if opts.RatePerMinute > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), burst)
	}
	return g
}

// Prompt builds the instruction sent upstream for content.
func (g *Gateway) Prompt(content string) string {
	return fmt.Sprintf("Summarize the following meeting content in about 2 sentences of %s: \"%s\"", g.language, content)
}

// Summarize returns a short summary of content, or FallbackText.
func (g *Gateway) Summarize(ctx context.Context, content string) string {
	text, err := g.summarize(ctx, content)
	if err != nil {
		g.logger.Warn("summary generation failed",
			"category", model.EventCategorySummary,
			"error", err,
			"content_length", len(content))
		return FallbackText
	}
	return text
}

func (g *Gateway) summarize(ctx context.Context, content string) (string, error) {
	if g.client == nil {
		return "", errors.New("no summarization client configured")
	}

	sum := sha256.Sum256([]byte(content))
	key := hex.EncodeToString(sum[:])

	ch := g.group.DoChan(key, func() (any, error) {
		// The shared call outlives any single waiter; only the timeout bounds it.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()

		if g.limiter != nil && !g.limiter.Allow() {
			return "", ErrRateLimited
		}

		text, err := g.client.Complete(callCtx, g.Prompt(content))
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", errors.New("empty completion")
		}
		return text, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
