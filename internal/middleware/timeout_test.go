// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTimeoutMiddlewareNormalRequest(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})

	rr := httptest.NewRecorder()
	Timeout(5*time.Second)(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if body := rr.Body.String(); body != "success" {
		t.Errorf("Body = %q, want %q", body, "success")
	}
}

func TestTimeoutMiddlewareSlowRequest(t *testing.T) {
	release := make(chan struct{})
	lateErr := make(chan error, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		<-release
		_, err := w.Write([]byte("late"))
		lateErr <- err
	})

	rr := httptest.NewRecorder()
	Timeout(50*time.Millisecond)(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	close(release)

	if err := <-lateErr; err != http.ErrHandlerTimeout {
		t.Errorf("late Write error = %v, want ErrHandlerTimeout", err)
	}
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(rr.Body.String(), `"timeout"`) {
		t.Errorf("Body = %q, want timeout error code", rr.Body.String())
	}
}

func TestTimeoutWriter_SingleWriteHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	tw := &timeoutWriter{w: rr, header: make(http.Header)}

	tw.WriteHeader(http.StatusCreated)
	tw.WriteHeader(http.StatusInternalServerError)

	if rr.Code != http.StatusCreated {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusCreated)
	}
}

func TestTimeoutMiddlewarePanicPropagates(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	defer func() {
		if p := recover(); p != "boom" {
			t.Errorf("recovered %v, want boom", p)
		}
	}()
	Timeout(time.Second)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	t.Error("expected the panic to reach the caller")
}

func TestTimeoutMiddlewareHandlerCanDropOuterHeaders(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Del("Content-Security-Policy")
		w.WriteHeader(http.StatusNoContent)
	})
	outer := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("X-Frame-Options", "DENY")
		Timeout(time.Second)(handler).ServeHTTP(w, r)
	})

	rr := httptest.NewRecorder()
	outer.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rr.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("Content-Security-Policy = %q, want removed", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
