// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"filippo.io/csrf"
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf checks Fetch metadata and Origin headers; no token or
// secret is involved.
type CSRFConfig struct {
	// TrustedOrigins are full origins ("https://board.example.com") allowed
	// to make cross-origin unsafe requests.
	TrustedOrigins []string

	// BypassPatterns are ServeMux patterns exempt from the check.
	BypassPatterns []string
}

// DefaultCSRFConfig returns a CSRFConfig with sensible defaults.
func DefaultCSRFConfig(isDev bool) CSRFConfig {
	var cfg CSRFConfig
	// The CLI and local tooling talk to the dev server from other ports.
	if isDev {
		cfg.TrustedOrigins = []string{
			"http://localhost:8080",
			"http://127.0.0.1:8080",
		}
	}
	return cfg
}

// CSRF returns a middleware that rejects cross-origin unsafe requests.
func CSRF(cfg CSRFConfig) (func(http.Handler) http.Handler, error) {
	p := csrf.New()
	for _, origin := range cfg.TrustedOrigins {
		if err := p.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("trusted origin %q: %w", origin, err)
		}
	}
	for _, pattern := range cfg.BypassPatterns {
		p.AddUnsafeBypassPattern(pattern)
	}

	fail := http.HandlerFunc(csrfErrorHandler)
	return func(next http.Handler) http.Handler {
		return p.HandlerWithFailHandler(next, fail)
	}, nil
}

// csrfErrorHandler handles CSRF validation failures.
func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	slog.Warn("CSRF validation failed",
		"category", "auth",
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	writeError(w, http.StatusForbidden, "csrf_failed", "Cross-origin request rejected")
}
