// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultAdminPassword is the administrator password of the reference
// deployment. It is rejected in production.
const DefaultAdminPassword = "admin"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Env        string `env:"MEETROOM_ENV" envDefault:"development"`
	ServerHost string `env:"MEETROOM_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"MEETROOM_SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"MEETROOM_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"MEETROOM_LOG_FORMAT"` // text or json; empty picks by Env

	// Storage substrate
	Storage     string `env:"MEETROOM_STORAGE" envDefault:"sqlite"` // sqlite, mysql, redis or memory
	DBPath      string `env:"MEETROOM_DB_PATH" envDefault:"./data/meetroom.db"`
	MySQLDSN    string `env:"MEETROOM_MYSQL_DSN"`
	RedisURL    string `env:"MEETROOM_REDIS_URL"`
	RedisPrefix string `env:"MEETROOM_REDIS_PREFIX" envDefault:"meetroom:"`

	// Administrator identity
	AdminUsername     string `env:"MEETROOM_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword     string `env:"MEETROOM_ADMIN_PASSWORD" envDefault:"admin"`
	AdminPasswordHash string `env:"MEETROOM_ADMIN_PASSWORD_HASH"` // argon2id; overrides AdminPassword

	// Summarization gateway
	AIAPIKey        string        `env:"MEETROOM_AI_API_KEY"`
	AIBaseURL       string        `env:"MEETROOM_AI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	AIModel         string        `env:"MEETROOM_AI_MODEL" envDefault:"gemini-3-flash-preview"`
	AILanguage      string        `env:"MEETROOM_AI_LANGUAGE" envDefault:"Vietnamese"`
	AITimeout       time.Duration `env:"MEETROOM_AI_TIMEOUT" envDefault:"30s"`
	AIRatePerMinute int           `env:"MEETROOM_AI_RATE_PER_MINUTE" envDefault:"30"`

	// HTTP limits
	MaxUploadMB    int           `env:"MEETROOM_MAX_UPLOAD_MB" envDefault:"25"`
	RequestTimeout time.Duration `env:"MEETROOM_REQUEST_TIMEOUT" envDefault:"60s"`

	// Preview thumbnail cache
	PreviewCacheTTL     time.Duration `env:"MEETROOM_PREVIEW_CACHE_TTL" envDefault:"1h"`
	PreviewCacheMaxSize int           `env:"MEETROOM_PREVIEW_CACHE_MAX_SIZE" envDefault:"256"`

	// GeoIP configuration
	GeoIPDBPath string `env:"MEETROOM_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Scheduled backups
	BackupSchedule string `env:"MEETROOM_BACKUP_SCHEDULE"` // cron spec, e.g. @daily; empty disables
	BackupDir      string `env:"MEETROOM_BACKUP_DIR" envDefault:"./data/backups"`
	BackupKeep     int    `env:"MEETROOM_BACKUP_KEEP" envDefault:"7"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// JSONLogs reports whether logs should be written as JSON.
func (c Config) JSONLogs() bool {
	if c.LogFormat != "" {
		return c.LogFormat == "json"
	}
	return !c.IsDevelopment()
}

// SummariesEnabled returns true if an API key for the summarization service is set.
func (c Config) SummariesEnabled() bool {
	return c.AIAPIKey != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// BackupsEnabled returns true if a backup schedule is configured.
func (c Config) BackupsEnabled() bool {
	return c.BackupSchedule != ""
}

// MaxUploadBytes is the request body cap for multipart uploads.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error

	switch c.Storage {
	case "sqlite", "memory":
	case "mysql":
		if c.MySQLDSN == "" {
			errs = append(errs, errors.New("MEETROOM_MYSQL_DSN is required when MEETROOM_STORAGE=mysql"))
		}
	case "redis":
		if c.RedisURL == "" {
			errs = append(errs, errors.New("MEETROOM_REDIS_URL is required when MEETROOM_STORAGE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("MEETROOM_STORAGE %q is not one of sqlite, mysql, redis, memory", c.Storage))
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("MEETROOM_SERVER_PORT %d is out of range", c.ServerPort))
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("MEETROOM_LOG_FORMAT %q is not text or json", c.LogFormat))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MEETROOM_MAX_UPLOAD_MB must be positive"))
	}
	if c.AITimeout <= 0 {
		errs = append(errs, errors.New("MEETROOM_AI_TIMEOUT must be positive"))
	}
	if c.BackupKeep < 1 {
		errs = append(errs, errors.New("MEETROOM_BACKUP_KEEP must be at least 1"))
	}

	// Reject the reference admin password outside development.
	if !c.IsDevelopment() && c.AdminPasswordHash == "" && c.AdminPassword == DefaultAdminPassword {
		errs = append(errs, errors.New("MEETROOM_ADMIN_PASSWORD is the default value and must not be used in production; "+
			"set MEETROOM_ADMIN_PASSWORD or MEETROOM_ADMIN_PASSWORD_HASH"))
	}

	return errors.Join(errs...)
}
