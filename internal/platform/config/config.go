// Package config loads server and balance configuration from the
// environment. Configuration errors are fatal at load time; the engine
// never starts with a partial or invalid config.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Server holds process-level settings.
type Server struct {
	Addr        string `env:"LUNATAP_ADDR" envDefault:":8080"`
	Driver      string `env:"LUNATAP_STORAGE_DRIVER" envDefault:"sqlite"` // sqlite | postgres
	SQLitePath  string `env:"LUNATAP_SQLITE_PATH" envDefault:"data/lunatap.db"`
	PostgresDSN string `env:"LUNATAP_POSTGRES_DSN"`
	RedisAddr   string `env:"LUNATAP_REDIS_ADDR"` // empty disables the stats cache
	CatalogPath string `env:"LUNATAP_CATALOG_PATH"` // empty uses the shipped catalog
	Profile     string `env:"LUNATAP_PROFILE" envDefault:"default"` // default | stress | low
}

// Load parses server settings from the environment.
func Load() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (s Server) validate() error {
	switch s.Driver {
	case "sqlite":
		if s.SQLitePath == "" {
			return fmt.Errorf("sqlite driver requires LUNATAP_SQLITE_PATH")
		}
	case "postgres":
		if s.PostgresDSN == "" {
			return fmt.Errorf("postgres driver requires LUNATAP_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", s.Driver)
	}

	switch s.Profile {
	case "default", "stress", "low":
	default:
		return fmt.Errorf("unknown profile %q", s.Profile)
	}

	return nil
}
