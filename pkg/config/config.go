package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for governx-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Atlas catalog service configuration
	Atlas AtlasConfig `yaml:"atlas"`

	// AI completion service configuration
	AI AIConfig `yaml:"ai"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"governx"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"governx_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`

	ConnLifetimeMinutes int `yaml:"conn_lifetime_minutes" env:"PGCONN_LIFETIME_MINUTES" env-default:"30"`
	ConnIdleMinutes     int `yaml:"conn_idle_minutes" env:"PGCONN_IDLE_MINUTES" env-default:"5"`
}

// ConnLifetime returns the maximum connection lifetime as a duration.
func (c *DatabaseConfig) ConnLifetime() time.Duration {
	return time.Duration(c.ConnLifetimeMinutes) * time.Minute
}

// ConnIdleTime returns the maximum connection idle time as a duration.
func (c *DatabaseConfig) ConnIdleTime() time.Duration {
	return time.Duration(c.ConnIdleMinutes) * time.Minute
}

// AtlasConfig holds connection settings for the remote metadata catalog.
type AtlasConfig struct {
	BaseURL        string `yaml:"base_url" env:"ATLAS_BASE_URL" env-default:"http://localhost:21000"`
	Username       string `yaml:"username" env:"ATLAS_USERNAME" env-default:"admin"`
	Password       string `yaml:"-" env:"ATLAS_PASSWORD"` // Secret - not in YAML
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"ATLAS_TIMEOUT_SECONDS" env-default:"30"`
}

// Timeout returns the catalog request timeout as a duration.
func (c *AtlasConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AIConfig holds settings for the OpenAI-compatible completion endpoint
// used for metadata suggestions.
type AIConfig struct {
	Endpoint    string  `yaml:"endpoint" env:"AI_ENDPOINT" env-default:""`
	Model       string  `yaml:"model" env:"AI_MODEL" env-default:""`
	APIKey      string  `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	Temperature float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.2"`
}

// IsAvailable returns true if the completion service is configured.
func (c *AIConfig) IsAvailable() bool {
	return c.Endpoint != "" && c.Model != ""
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Secrets (PGPASSWORD, ATLAS_PASSWORD, AI_API_KEY) must come from environment
// variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
