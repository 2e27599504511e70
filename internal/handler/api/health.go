// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/olegiv/meetroom-go/internal/middleware"
	"github.com/olegiv/meetroom-go/internal/store"
	"github.com/olegiv/meetroom-go/internal/version"
)

// healthProbeKey is read (never written) to check the storage substrate.
const healthProbeKey = "meetroom_health_probe"

// HealthStatus represents the overall health status. Version and checks are
// reported to the administrator only.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Version   *version.Info    `json:"version,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	storage := h.checkStorage(r)

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	}
	code := http.StatusOK
	if storage.Status != "healthy" {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	if middleware.GetAuth(r).CanEdit() {
		v := h.version
		status.Version = &v
		status.Checks = map[string]Check{"storage": storage}
	}

	WriteJSON(w, code, Response{Data: status})
}

func (h *Handler) checkStorage(r *http.Request) Check {
	if h.storage == nil {
		return Check{Status: "healthy", Message: "not configured"}
	}

	start := time.Now()
	_, err := h.storage.Get(r.Context(), healthProbeKey)
	latency := time.Since(start).Round(time.Microsecond).String()

	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("storage health check failed", "category", "storage", "error", err)
		return Check{Status: "unhealthy", Message: "storage unreachable", Latency: latency}
	}
	return Check{Status: "healthy", Latency: latency}
}
