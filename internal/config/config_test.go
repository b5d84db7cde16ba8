package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTExpire)
	assert.Equal(t, 5*time.Second, cfg.Sync.Delay)
	assert.Equal(t, "@every 1m", cfg.Sync.RecoverySpec)
	assert.False(t, cfg.Lock.Enabled)
	assert.Equal(t, "http://localhost:5000/api/v1", cfg.Client.BaseURL)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 8080
database:
  type: postgres
  dsn: host=localhost dbname=journal
sync:
  delay: 2s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o600))
	t.Setenv("AUTH_JWT_SECRET", "from-env")
	t.Setenv("SYNC_BATCH_SIZE", "25")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "host=localhost dbname=journal", cfg.Database.DSN)
	assert.Equal(t, 2*time.Second, cfg.Sync.Delay)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 25, cfg.Sync.BatchSize)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("server: [unclosed"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
