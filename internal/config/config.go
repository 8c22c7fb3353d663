package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the ETL pipeline. Values come from
// config.yaml when present, with environment variables overriding. Secrets
// (PGPASSWORD) come only from the environment.
type Config struct {
	Env            string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	DataDir        string `yaml:"data_dir" env:"DATA_DIR" env-default:"data"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
	RefreshViews   bool   `yaml:"refresh_views" env:"REFRESH_VIEWS" env-default:"true"`

	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"advocacy"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"advocacy_platform"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	// AcquireTimeoutSeconds bounds how long the loader waits for its
	// transaction; timeouts surface as retryable failures.
	AcquireTimeoutSeconds int `yaml:"acquire_timeout_seconds" env:"PGACQUIRE_TIMEOUT_SECONDS" env-default:"5"`
}

// Load reads configuration from config.yaml with environment variable
// overrides, falling back to environment only when no file exists.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required")
	}
	return cfg, nil
}

// DSN returns a pgx-compatible connection URL.
func (c *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// AcquireTimeout returns the transaction acquisition timeout.
func (c *DatabaseConfig) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutSeconds) * time.Second
}
