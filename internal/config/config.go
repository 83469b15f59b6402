package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Environment  string        `env:"ENVIRONMENT" envDefault:"development"`
	SettingsPath string        `env:"ESAS_SETTINGS_PATH" envDefault:"Data/SKSE/Plugins/EquipSpellsAsShouts.json"`
	Store        string        `env:"ESAS_STORE" envDefault:"memory"`
	RedisURL     string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	SQLitePath   string        `env:"ESAS_SQLITE_PATH" envDefault:"esas-cosave.db"`
	SaveTTL      time.Duration `env:"ESAS_SAVE_TTL" envDefault:"0s"`
}

// Record stores selectable with ESAS_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Store {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return nil, fmt.Errorf("invalid ESAS_STORE %q", cfg.Store)
	}
	if cfg.SaveTTL < 0 {
		return nil, fmt.Errorf("invalid ESAS_SAVE_TTL %s", cfg.SaveTTL)
	}
	return &cfg, nil
}

// IsProduction reports whether logs should be machine readable.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
