// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic backups of the board.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// backupPrefix and backupTimeFormat name backup files; the timestamp sorts
// lexically in time order.
const (
	backupPrefix     = "backup-"
	backupSuffix     = ".json"
	backupTimeFormat = "20060102-150405"
)

// Exporter writes a complete export to path. *transfer.Exporter satisfies it.
type Exporter interface {
	ExportToFile(ctx context.Context, path string) error
}

// Config configures the backup job.
type Config struct {
	// Schedule is a cron spec or descriptor such as "@daily".
	Schedule string
	Dir      string
	// Keep is the number of newest backups retained.
	Keep int
}

// Scheduler writes exports on a cron schedule and prunes old ones.
type Scheduler struct {
	cfg      Config
	exporter Exporter
	cron     *cron.Cron
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new scheduler instance.
func New(cfg Config, exporter Exporter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Keep < 1 {
		cfg.Keep = 1
	}
	return &Scheduler{
		cfg:      cfg,
		exporter: exporter,
		cron:     cron.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the backup job and starts the cron runner.
func (s *Scheduler) Start() error {
	if err := os.MkdirAll(s.cfg.Dir, 0o750); err != nil {
		return fmt.Errorf("creating backup dir: %w", err)
	}

	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunBackup(context.Background()); err != nil {
			s.logger.Error("scheduled backup failed", "category", "storage", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.cfg.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.cfg.Schedule, "dir", s.cfg.Dir, "keep", s.cfg.Keep)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running backup.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunBackup writes one backup now and prunes old ones. It returns the path
// of the new backup.
func (s *Scheduler) RunBackup(ctx context.Context) (string, error) {
	name := backupPrefix + s.now().UTC().Format(backupTimeFormat) + backupSuffix
	path := filepath.Join(s.cfg.Dir, name)

	if err := s.exporter.ExportToFile(ctx, path); err != nil {
		return "", err
	}
	s.logger.Info("backup written", "category", "storage", "path", path)

	if err := s.prune(); err != nil {
		s.logger.Warn("pruning backups", "category", "storage", "error", err)
	}
	return path, nil
}

// Backups lists backup file names, newest first.
func (s *Scheduler) Backups() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupSuffix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	slices.Reverse(names)
	return names, nil
}

func (s *Scheduler) prune() error {
	names, err := s.Backups()
	if err != nil {
		return err
	}
	if len(names) <= s.cfg.Keep {
		return nil
	}

	var errs []string
	for _, name := range names[s.cfg.Keep:] {
		if err := os.Remove(filepath.Join(s.cfg.Dir, name)); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		s.logger.Debug("old backup removed", "name", name)
	}
	if len(errs) > 0 {
		return fmt.Errorf("removing old backups: %s", strings.Join(errs, "; "))
	}
	return nil
}
