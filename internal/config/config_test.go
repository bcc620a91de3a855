package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorePostgres, cfg.Ledger.Store)
	assert.Equal(t, 2, cfg.NamePolicy().MaxWords)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://*", "http://*"}, cfg.Server.AllowedOrigins)

	auth := cfg.AuthConfig()
	assert.Equal(t, "secret", auth.SecretKey)
	assert.Equal(t, 24*time.Hour, auth.TokenTTL)
	assert.Equal(t, uint32(64*1024), auth.Argon2.Memory)
}

func TestLoad_FileThenEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	content := "DATABASE_HOST=db.internal\nLEDGER_NAME_POLICY=one_word\nREDIS_PORT=6380\nJWT_SECRET_KEY=from-file\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	t.Setenv("REDIS_PORT", "7000")
	t.Setenv("LEDGER_STORE", "Memory")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 1, cfg.NamePolicy().MaxWords)
	assert.Equal(t, "7000", cfg.Redis.Port)
	assert.Equal(t, StoreMemory, cfg.Ledger.Store)
	assert.Equal(t, "from-file", cfg.JWT.SecretKey)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "")
		_, err := Load(filepath.Join(dir, "none.env"))
		assert.Error(t, err)
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "secret")
		t.Setenv("LEDGER_STORE", "sqlite")
		_, err := Load(filepath.Join(dir, "none.env"))
		assert.Error(t, err)
	})

	t.Run("unknown name policy", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "secret")
		t.Setenv("LEDGER_NAME_POLICY", "three_words")
		_, err := Load(filepath.Join(dir, "none.env"))
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Environment: "development"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
