package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValidOnceBaseURLSet(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate(), "base url is mandatory")

	cfg.API.BaseURL = "https://api.example.com/v1"
	require.NoError(t, cfg.Validate())
	require.Equal(t, "coach", cfg.Global.Role)
	require.Equal(t, 20, cfg.Chat.PageSize)
	require.Equal(t, 5*time.Second, cfg.Chat.PollInterval)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown role", func(c *Config) { c.Global.Role = "admin" }},
		{"zero page size", func(c *Config) { c.Chat.PageSize = 0 }},
		{"negative poll interval", func(c *Config) { c.Chat.PollInterval = -time.Second }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.API.BaseURL = "https://api.example.com"
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
global:
  role: client
  user_id: user-42
api:
  base_url: https://api.example.com/v1
  token: secret
chat:
  page_size: 50
tui:
  theme: high-contrast
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "client", cfg.Global.Role)
	require.Equal(t, "user-42", cfg.Global.UserID)
	require.Equal(t, "https://api.example.com/v1", cfg.API.BaseURL)
	require.Equal(t, 50, cfg.Chat.PageSize)
	require.Equal(t, "high-contrast", cfg.TUI.Theme)
	// Unspecified keys keep their defaults.
	require.Equal(t, 5*time.Second, cfg.Chat.PollInterval)
}

func TestLoadFromMissingExplicitFileFails(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvVarsOverrideDefaults(t *testing.T) {
	t.Setenv("COACHDESK_API_BASE_URL", "https://env.example.com")
	t.Setenv("COACHDESK_GLOBAL_ROLE", "client")
	t.Setenv("COACHDESK_LOGGING_LEVEL", "debug")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	require.Equal(t, "client", cfg.Global.Role)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestFlagOverridesWinOverEnv(t *testing.T) {
	t.Setenv("COACHDESK_API_BASE_URL", "https://env.example.com")

	loader := NewLoader()
	loader.Set("api.base_url", "https://flag.example.com")

	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, "https://flag.example.com", cfg.API.BaseURL)
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, "logs"), expandTilde("~/logs"))
	require.Equal(t, home, expandTilde("~"))
	require.Equal(t, "/var/log", expandTilde("/var/log"))
	require.Equal(t, "", expandTilde(""))
}

func TestOutboxPathUnderDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.DataDir = "/tmp/coachdesk-data"
	require.Equal(t, "/tmp/coachdesk-data/outbox.db", cfg.OutboxPath())
}
