package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/legacybooks/internal/infra/legacy"
)

// Rejects backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references first, and
// applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Legacy.Name == "" {
		cfg.Legacy.Name = "legacy-books"
	}
	if cfg.Legacy.Timeout == 0 {
		cfg.Legacy.Timeout = 10 * time.Second
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = legacy.DefaultRetryConfig.MaxAttempts
	}
	if cfg.Retry.InitialDelay == 0 {
		cfg.Retry.InitialDelay = legacy.DefaultRetryConfig.InitialDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = legacy.DefaultRetryConfig.MaxDelay
	}
	if cfg.Retry.BackoffMultiple == 0 {
		cfg.Retry.BackoffMultiple = legacy.DefaultRetryConfig.BackoffMultiple
	}

	if cfg.Rejects.Backend == "" {
		cfg.Rejects.Backend = BackendMemory
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 5 * time.Minute
	}
}

// Validate reports configuration that cannot work.
func (c *AppConfig) Validate() error {
	switch c.Rejects.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("rejects backend %q requires redis.url", c.Rejects.Backend)
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("rejects backend %q requires database.url", c.Rejects.Backend)
		}
	default:
		return fmt.Errorf("unknown rejects backend %q", c.Rejects.Backend)
	}

	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval)
	}
	if c.Legacy.Timeout < 0 {
		return fmt.Errorf("legacy.timeout must not be negative, got %s", c.Legacy.Timeout)
	}

	if len(c.Sync.ISBNs) > 0 && c.Legacy.BaseURL == "" {
		return fmt.Errorf("sync.isbns requires legacy.base_url")
	}
	return nil
}
