package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffchat/skiff/config"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "skiff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	c, err := config.Load(writeConfig(t, "server_url: https://chat.example.com\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", c.ServerURL)
	assert.Equal(t, "wss://chat.example.com/api/v4/websocket", c.WebsocketURL)
	assert.Equal(t, "en", c.Locale)
	assert.Equal(t, 7*24*time.Hour, c.AutoCloseAfter())
	assert.Equal(t, "skiff-cache.db", c.CachePath)
	assert.Equal(t, 1, c.ReconnectMinSeconds)
	assert.Equal(t, 60, c.ReconnectMaxSeconds)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	c, err := config.Load(writeConfig(t, `server_url: http://localhost:8065
websocket_url: ws://localhost:8065/ws
locale: sv
auto_close_after_days: 14
cache_path: /tmp/sidebar.db
`))
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8065/ws", c.WebsocketURL)
	assert.Equal(t, "sv", c.Locale)
	assert.Equal(t, 14*24*time.Hour, c.AutoCloseAfter())
	assert.Equal(t, "/tmp/sidebar.db", c.CachePath)
}

func TestLoadRequiresServerURL(t *testing.T) {
	_, err := config.Load(writeConfig(t, "locale: en\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server_url")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
