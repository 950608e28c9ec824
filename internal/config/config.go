package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for wxdb.
type Config struct {
	LogFormat string        `mapstructure:"log_format"`
	Storage   StorageConfig `mapstructure:"storage"`
	Backup    BackupConfig  `mapstructure:"backup"`
	Query     QueryConfig   `mapstructure:"query"`
}

// StorageConfig defines the database backend.
type StorageConfig struct {
	Driver   string         `mapstructure:"driver"` // "sqlite" or "postgres"
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// SQLiteConfig holds SQLite-specific configuration.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig holds PostgreSQL-specific configuration.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// BackupConfig locates the WS-2000 backup files.
type BackupConfig struct {
	Dir     string `mapstructure:"dir"`
	Pattern string `mapstructure:"pattern"`
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	DefaultPoints int `mapstructure:"default_points"`
}

// Load reads configuration from flag path, env vars, then default file paths.
// Precedence: flag → $WXDB_CONFIG env → ~/.config/wxdb/config.yaml → /etc/wxdb/config.yaml
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("log_format", "text")
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite.path", "ws2000.db")
	v.SetDefault("backup.dir", ".")
	v.SetDefault("backup.pattern", "Backup-*.CSV")
	v.SetDefault("query.default_points", 1000)

	// Env var support
	v.SetEnvPrefix("WXDB")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else if envPath := os.Getenv("WXDB_CONFIG"); envPath != "" {
		v.SetConfigFile(envPath)
	} else {
		// Try ~/.config/wxdb/config.yaml first
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "wxdb"))
		}
		// Fall back to /etc/wxdb/config.yaml
		v.AddConfigPath("/etc/wxdb")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration is complete and correct.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required for sqlite driver")
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be 'sqlite' or 'postgres', got %q", c.Storage.Driver)
	}

	if c.Backup.Pattern == "" {
		return fmt.Errorf("backup.pattern must not be empty")
	}
	if c.Query.DefaultPoints < 1 {
		return fmt.Errorf("query.default_points must be >= 1, got %d", c.Query.DefaultPoints)
	}

	return nil
}

// DSN returns the appropriate DSN for the configured storage driver.
func (c *Config) DSN() string {
	switch c.Storage.Driver {
	case "sqlite":
		return c.Storage.SQLite.Path
	case "postgres":
		return c.Storage.Postgres.DSN
	default:
		return ""
	}
}
