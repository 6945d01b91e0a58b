package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_NAME", "crossfm_test")
	t.Setenv("REDIS_DB", "5")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("SEED_DIR", "/tmp/seed")

	cfg := Load()
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "crossfm_test", cfg.DBName)
	assert.Equal(t, 5, cfg.RedisDB)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "/tmp/seed", cfg.SeedDir)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("MINIO_USE_SSL", "not-a-bool")

	assert.Equal(t, 3, getEnvInt("REDIS_DB", 3), "unparseable ints fall back")
	assert.False(t, getEnvBool("MINIO_USE_SSL", false), "unparseable bools fall back")
	assert.Equal(t, "fallback", getEnv("DEFINITELY_UNSET_VAR_12345", "fallback"))
}
