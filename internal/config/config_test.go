package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("HELPDESK_TENANT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "default-app-id", cfg.Store.TenantID)
	assert.Equal(t, 10*time.Second, cfg.Store.WriteTimeout())
	assert.Equal(t, 10, cfg.View.DefaultPageSize)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "127.0.0.1:8080", cfg.App.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("HELPDESK_TENANT_ID", "acme")
	t.Setenv("STORE_WRITE_TIMEOUT_SECONDS", "3")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("HELPDESK_INITIAL_AUTH_TOKEN", "token-value")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "acme", cfg.Store.TenantID)
	assert.Equal(t, 3*time.Second, cfg.Store.WriteTimeout())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "token-value", cfg.Auth.InitialAuthToken)
	assert.Equal(t, "127.0.0.1:9090", cfg.App.Addr())
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "firestore")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DSNSelectsPostgres(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/helpdesk")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvAsIntFallback(t *testing.T) {
	t.Setenv("SOME_INT", "x")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
	t.Setenv("SOME_INT", "12")
	assert.Equal(t, 12, getEnvAsInt("SOME_INT", 7))
}
