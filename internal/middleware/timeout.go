// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"maps"
	"net/http"
	"sync"
	"time"
)

// Timeout bounds each request by d. Handlers see the deadline through the
// request context. When the deadline passes before the handler has sent a
// status, the client gets a 503 and later writes fail with
// http.ErrHandlerTimeout. Responses that already started are left to finish.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tw := &timeoutWriter{w: w, header: w.Header().Clone()}
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
			case <-ctx.Done():
				tw.mu.Lock()
				started := tw.started
				if !started {
					tw.timedOut = true
					writeError(w, http.StatusServiceUnavailable, "timeout", "Request timed out")
				}
				tw.mu.Unlock()
				if !started {
					return
				}
				// The response already began; let the handler finish it.
				select {
				case <-done:
				case p := <-panicked:
					panic(p)
				}
			}
		})
	}
}

// timeoutWriter works on a copy of the header map until the status is sent,
// so a handler still running after a timeout never touches the real writer.
// Headers set by outer middleware are in the copy and may be removed.
type timeoutWriter struct {
	w      http.ResponseWriter
	header http.Header

	mu       sync.Mutex
	started  bool
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.start(code)
}

// start sends the buffered headers and status. Callers hold mu.
func (tw *timeoutWriter) start(code int) {
	if tw.timedOut || tw.started {
		return
	}
	tw.started = true
	dst := tw.w.Header()
	clear(dst)
	maps.Copy(dst, tw.header)
	tw.w.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.start(http.StatusOK)
	return tw.w.Write(b)
}
