package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://localhost:5000", cfg.Server.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
}

func TestValidateRejectsBadServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.BaseURL = ""
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.BaseURL = "localhost:5000"
	require.Error(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  base_url: https://chat.example.com
  token: abc123
logging:
  level: debug
tui:
  theme: high-contrast
`), 0o644))

	loader := NewLoader()
	loader.SetConfigFile(path)
	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, "https://chat.example.com", cfg.Server.BaseURL)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "high-contrast", cfg.TUI.Theme)

	token, err := cfg.ResolveToken()
	require.NoError(t, err)
	require.Equal(t, "abc123", token)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	loader := NewLoader()
	loader.SetConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := loader.Load()
	require.Error(t, err)
}

func TestResolveTokenFromFile(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("tok-from-file\n"), 0o600))

	cfg := DefaultConfig()
	cfg.Server.Token = "inline-ignored"
	cfg.Server.TokenFile = tokenPath

	token, err := cfg.ResolveToken()
	require.NoError(t, err)
	require.Equal(t, "tok-from-file", token)
}

func TestPushURLFallsBackToBase(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, cfg.Server.BaseURL, cfg.PushURL())

	cfg.Server.WSURL = "ws://push.example.com"
	require.Equal(t, "ws://push.example.com", cfg.PushURL())
}
