package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("IMPORT_WORKERS", "")

	cfg := FromEnv()

	assert.Equal(t, defaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, defaultWorkers, cfg.ImportWorkers)
	assert.Equal(t, defaultAPIURL, cfg.CamaraAPIURL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x@db/camara")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("IMPORT_WORKERS", "12")

	cfg := FromEnv()

	assert.Equal(t, "postgres://x@db/camara", cfg.DatabaseURL)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 12, cfg.ImportWorkers)
}

func TestFromEnvIgnoresInvalidWorkers(t *testing.T) {
	t.Setenv("IMPORT_WORKERS", "-3")
	assert.Equal(t, defaultWorkers, FromEnv().ImportWorkers)

	t.Setenv("IMPORT_WORKERS", "many")
	assert.Equal(t, defaultWorkers, FromEnv().ImportWorkers)
}
