// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package app wires the storage substrate, the record store and the
// services shared by the HTTP server and the command-line client.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/olegiv/meetroom-go/internal/auth"
	"github.com/olegiv/meetroom-go/internal/config"
	"github.com/olegiv/meetroom-go/internal/logging"
	"github.com/olegiv/meetroom-go/internal/records"
	"github.com/olegiv/meetroom-go/internal/service"
	"github.com/olegiv/meetroom-go/internal/store"
	"github.com/olegiv/meetroom-go/internal/summarize"
	"github.com/olegiv/meetroom-go/internal/transfer"
)

// App holds the long-lived components.
type App struct {
	Config  *config.Config
	Backend *store.Backend
	Logger  *slog.Logger

	Records     *records.Store
	Events      *service.EventService
	Summaries   *summarize.Gateway
	Documents   *service.DocumentService
	Attachments *service.AttachmentService
	Exporter    *transfer.Exporter
	Importer    *transfer.Importer
	Admin       auth.AdminCredentials
}

// New opens the configured storage, loads the collections and builds the
// services. Logs go to logOut; WARN and above are also recorded as events.
func New(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	if cfg.Storage == store.DriverSQLite || cfg.Storage == "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	backend, err := store.Open(ctx, store.Config{
		Driver:      cfg.Storage,
		SQLitePath:  cfg.DBPath,
		MySQLDSN:    cfg.MySQLDSN,
		RedisURL:    cfg.RedisURL,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	a, err := build(ctx, cfg, backend, logOut)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return a, nil
}

// NewWithBackend builds an App on an already opened backend.
func NewWithBackend(ctx context.Context, cfg *config.Config, backend *store.Backend, logOut io.Writer) (*App, error) {
	return build(ctx, cfg, backend, logOut)
}

func build(ctx context.Context, cfg *config.Config, backend *store.Backend, logOut io.Writer) (*App, error) {
	format := "text"
	if cfg.JSONLogs() {
		format = "json"
	}
	events := service.NewEventService(backend.KV)
	logger := logging.New(logOut, cfg.LogLevel, format, events)

	rs := records.New(backend.KV, logger)
	if err := rs.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}

	admin, err := adminCredentials(cfg)
	if err != nil {
		return nil, err
	}

	gateway := summarize.New(summaryClient(cfg, logger), summarize.Options{
		Language:      cfg.AILanguage,
		Timeout:       cfg.AITimeout,
		RatePerMinute: cfg.AIRatePerMinute,
	}, logger)

	return &App{
		Config:      cfg,
		Backend:     backend,
		Logger:      logger,
		Records:     rs,
		Events:      events,
		Summaries:   gateway,
		Documents:   service.NewDocumentService(rs, events, gateway, logger),
		Attachments: service.NewAttachmentService(rs, events, logger),
		Exporter:    transfer.NewExporter(rs, logger),
		Importer:    transfer.NewImporter(rs, logger),
		Admin:       admin,
	}, nil
}

// Gate returns an access gate that keeps its session in sessions.
func (a *App) Gate(sessions auth.SessionStore) *auth.Gate {
	return auth.NewGate(a.Admin, sessions, a.Logger)
}

// Close releases the storage substrate.
func (a *App) Close() error {
	return a.Backend.Close()
}

func adminCredentials(cfg *config.Config) (auth.AdminCredentials, error) {
	if cfg.AdminPasswordHash != "" {
		if _, err := auth.CheckPassword("", cfg.AdminPasswordHash); errors.Is(err, auth.ErrInvalidHash) {
			return auth.AdminCredentials{}, fmt.Errorf("MEETROOM_ADMIN_PASSWORD_HASH: %w", err)
		}
		return auth.AdminCredentials{Username: cfg.AdminUsername, PasswordHash: cfg.AdminPasswordHash}, nil
	}
	creds, err := auth.NewAdminCredentials(cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return auth.AdminCredentials{}, fmt.Errorf("hashing admin password: %w", err)
	}
	return creds, nil
}

// summaryClient returns nil when no API key is configured; the gateway then
// answers every request with the fallback text.
func summaryClient(cfg *config.Config, logger *slog.Logger) summarize.Client {
	if !cfg.SummariesEnabled() {
		logger.Info("summaries disabled: no API key configured", "category", "summary")
		return nil
	}
	client, err := summarize.NewOpenAIClient(summarize.OpenAIConfig{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
	})
	if err != nil {
		logger.Warn("summaries disabled", "category", "summary", "error", err)
		return nil
	}
	return client
}
