package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetverse/assetverse-api/pkg/config"
)

func TestLoad_SinSecret_Error(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_DefaultsYEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ROLE_GATE_TIMEOUT", "3s")
	t.Setenv("ROLE_CACHE_TTL", "no-es-duracion")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("STORAGE", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, 3*time.Second, cfg.Role.GateTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Role.CacheTTL, "un valor inválido cae al default")
	assert.False(t, cfg.Redis.Enabled())
	assert.True(t, cfg.App.InMemory())
}

func TestDBConfig_DSN_EscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "assetverse", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/assetverse?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}

func TestLoadDB_NoRequiereJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/assetverse")
	db, err := config.LoadDB()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/assetverse", db.ConnectionString())
}
