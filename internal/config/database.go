package config

import (
	"fmt"
	"time"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite or postgres
	Path            string        `mapstructure:"path"`   // sqlite file path
	URL             string        `mapstructure:"url"`    // postgres connection string
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the data source name for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	if c.Path == "" {
		return "file::memory:?cache=shared"
	}
	return c.Path
}

// Validate checks the fields required by the selected driver.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "postgres":
		if c.URL == "" {
			return fmt.Errorf("database: url is required for postgres (set DATABASE_URL)")
		}
	case "sqlite", "":
	default:
		return fmt.Errorf("database: unknown driver %q", c.Driver)
	}
	return nil
}
