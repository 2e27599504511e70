// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olegiv/meetroom-go/internal/auth"
	"github.com/olegiv/meetroom-go/internal/config"
	"github.com/olegiv/meetroom-go/internal/filedata"
	"github.com/olegiv/meetroom-go/internal/model"
	"github.com/olegiv/meetroom-go/internal/summarize"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:           "development",
		LogLevel:      "info",
		Storage:       "sqlite",
		DBPath:        filepath.Join(t.TempDir(), "nested", "meetroom.db"),
		AdminUsername: "admin",
		AdminPassword: "admin",
	}
}

func TestNew_PersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	var logs bytes.Buffer
	first, err := New(ctx, cfg, &logs)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	admin := model.AdminUser
	_, err = first.Documents.Save(ctx, &admin, "", model.Draft{
		Order:     1,
		Content:   "Báo cáo quý",
		Presenter: "Lan",
		File:      filedata.Ready("q3.pdf", filedata.Encode("application/pdf", []byte("%PDF"))),
	})
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	second, err := New(ctx, cfg, &logs)
	if err != nil {
		t.Fatalf("New() after restart error: %v", err)
	}
	defer func() { _ = second.Close() }()

	docs := second.Documents.List(ctx)
	if len(docs) != 1 || docs[0].Content != "Báo cáo quý" {
		t.Fatalf("documents after restart = %+v", docs)
	}

	events, err := second.Events.List(ctx, 10)
	if err != nil {
		t.Fatalf("Events.List() error: %v", err)
	}
	if len(events) == 0 {
		t.Error("expected the save to be recorded as an event")
	}
}

func TestNew_SummariesDisabledWithoutKey(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Storage = "memory"

	a, err := New(ctx, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() { _ = a.Close() }()

	if got := a.Summaries.Summarize(ctx, "nội dung"); got != summarize.FallbackText {
		t.Errorf("Summarize() = %q, want fallback", got)
	}
}

func TestGate_UsesConfiguredAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Storage = "memory"
	cfg.AdminUsername = "chair"
	cfg.AdminPassword = "s3cret"

	a, err := New(ctx, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() { _ = a.Close() }()

	gate := a.Gate(auth.NewKVSessions(a.Backend.KV))

	state, err := gate.Login(ctx, "chair", "s3cret")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if !state.CanEdit() {
		t.Error("configured admin should be able to edit")
	}

	state, err = gate.Login(ctx, "admin", "admin")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if state.CanEdit() {
		t.Error("default credentials should resolve to the guest once overridden")
	}
}

func TestNew_PasswordHash(t *testing.T) {
	ctx := context.Background()
	hash, err := auth.HashPassword("from-hash")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	cfg := testConfig(t)
	cfg.Storage = "memory"
	cfg.AdminPasswordHash = hash

	a, err := New(ctx, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() { _ = a.Close() }()

	if a.Admin.PasswordHash != hash {
		t.Error("configured hash should be used as is")
	}
	if u := a.Gate(auth.NewKVSessions(a.Backend.KV)).Resolve("admin", "from-hash"); !u.IsAdmin() {
		t.Error("hash password should resolve to the admin")
	}
}

func TestNew_InvalidPasswordHash(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage = "memory"
	cfg.AdminPasswordHash = "not-a-hash"

	_, err := New(context.Background(), cfg, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "MEETROOM_ADMIN_PASSWORD_HASH") {
		t.Fatalf("New() error = %v, want hash error", err)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage = "etcd"

	if _, err := New(context.Background(), cfg, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}
