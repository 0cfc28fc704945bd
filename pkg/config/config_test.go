package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("SHELFMARK_CONFIG", "/nonexistent/shelfmark.yaml")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.DatabaseBusyTimeout)
	assert.Equal(t, 5, cfg.DatabaseConnectRetryCount)
	assert.Equal(t, 2*time.Second, cfg.DatabaseConnectRetryDelay)
	assert.False(t, cfg.DatabaseDebug)
	assert.Equal(t, "./tmp/catalogue.sqlite", cfg.DatabaseFilePath)
	assert.Equal(t, "127.0.0.1", cfg.ServerHost)
	assert.Equal(t, 3660, cfg.ServerPort)
	assert.NotEmpty(t, cfg.Hostname)
}

func TestNew_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "shelfmark.yaml")

	configContent := `
database_file_path: /data/catalogue.sqlite
server_port: 8080
database_debug: true
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("SHELFMARK_CONFIG", configPath)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/catalogue.sqlite", cfg.DatabaseFilePath)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.True(t, cfg.DatabaseDebug)
}

func TestNew_EnvVarOverridesConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "shelfmark.yaml")

	configContent := `
database_file_path: /data/from-file.sqlite
server_port: 8080
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("SHELFMARK_CONFIG", configPath)
	t.Setenv("SHELFMARK_DATABASE_FILE_PATH", "/data/from-env.sqlite")
	t.Setenv("SHELFMARK_SERVER_PORT", "9090")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/from-env.sqlite", cfg.DatabaseFilePath)
	assert.Equal(t, 9090, cfg.ServerPort)
}
