// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/olegiv/meetroom-go/internal/app"
	"github.com/olegiv/meetroom-go/internal/cli"
	"github.com/olegiv/meetroom-go/internal/config"
	"github.com/olegiv/meetroom-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		cli.NewFormatter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// Keep command output clean unless a level was asked for.
	if os.Getenv("MEETROOM_LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, os.Stderr)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	defer func() { _ = application.Close() }()

	deps := &cli.Dependencies{
		App: application,
		Version: version.Info{
			Version:   appVersion,
			GitCommit: appGitCommit,
			BuildTime: appBuildTime,
		},
	}

	return cli.NewRootCmd(deps).ExecuteContext(ctx)
}
