package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("test-version")
	require.NoError(t, err)

	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "127.0.0.1", cfg.BindAddr)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "local", cfg.Env)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "governx_engine", cfg.Database.Database)
	assert.Equal(t, "migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, int32(10), cfg.Database.MaxConnections)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnLifetime())
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnIdleTime())

	assert.Equal(t, "http://localhost:21000", cfg.Atlas.BaseURL)
	assert.Equal(t, "admin", cfg.Atlas.Username)
	assert.Equal(t, 30*time.Second, cfg.Atlas.Timeout())

	assert.False(t, cfg.AI.IsAvailable())
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 0.0001)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPASSWORD", "s3cret")
	t.Setenv("PGCONN_LIFETIME_MINUTES", "10")
	t.Setenv("PGCONN_IDLE_MINUTES", "2")
	t.Setenv("ATLAS_TIMEOUT_SECONDS", "5")
	t.Setenv("AI_ENDPOINT", "https://ai.internal/v1")
	t.Setenv("AI_MODEL", "gpt-4o-mini")

	cfg, err := Load("dev")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 10*time.Minute, cfg.Database.ConnLifetime())
	assert.Equal(t, 2*time.Minute, cfg.Database.ConnIdleTime())
	assert.Equal(t, 5*time.Second, cfg.Atlas.Timeout())
	assert.True(t, cfg.AI.IsAvailable())
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5433,
		User:     "governx",
		Password: "pw",
		Database: "governx_engine",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5433 user=governx password=pw dbname=governx_engine sslmode=disable",
		cfg.ConnectionString())
}

func TestAIConfig_IsAvailable(t *testing.T) {
	assert.False(t, (&AIConfig{Endpoint: "https://ai"}).IsAvailable())
	assert.False(t, (&AIConfig{Model: "gpt-4o"}).IsAvailable())
	assert.True(t, (&AIConfig{Endpoint: "https://ai", Model: "gpt-4o"}).IsAvailable())
}
