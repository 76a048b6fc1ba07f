package config

import (
	"time"

	"github.com/vietddude/legacybooks/internal/infra/legacy"
	redisclient "github.com/vietddude/legacybooks/internal/infra/redis"
	"github.com/vietddude/legacybooks/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Legacy   LegacyConfig       `yaml:"legacy"`
	Retry    legacy.RetryConfig `yaml:"retry"`
	Rejects  RejectsConfig      `yaml:"rejects"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Sync     SyncConfig         `yaml:"sync"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// LegacyConfig describes the legacy books endpoint.
type LegacyConfig struct {
	Name          string        `yaml:"name"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	StoreCacheTTL time.Duration `yaml:"store_cache_ttl"` // 0 disables
}

// RejectsConfig selects where rejected payloads are kept.
type RejectsConfig struct {
	Backend string        `yaml:"backend"` // memory, redis, postgres
	TTL     time.Duration `yaml:"ttl"`     // redis only
}

// SyncConfig lists the books refreshed periodically.
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
	ISBNs    []string      `yaml:"isbns"`
}
