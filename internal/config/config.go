// Package config handles coachdesk configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure for coachdesk.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// API settings for the conversation service
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Chat settings
	Chat ChatConfig `yaml:"chat" mapstructure:"chat"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig contains global coachdesk settings.
type GlobalConfig struct {
	// DataDir is where coachdesk stores local state such as the outbox
	// database (default: ~/.local/share/coachdesk).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// Role is the viewer role (coach, client). Notification routing depends
	// on it.
	Role string `yaml:"role" mapstructure:"role"`

	// UserID identifies the viewer to distinguish own messages in threads.
	UserID string `yaml:"user_id" mapstructure:"user_id"`
}

// APIConfig contains conversation-service settings.
type APIConfig struct {
	// BaseURL is the service root, e.g. https://api.example.com/v1.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Token is the bearer token for the authenticated session.
	Token string `yaml:"token" mapstructure:"token"`

	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// ChatConfig contains messaging behaviour settings.
type ChatConfig struct {
	// PageSize is the conversation-list page size.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// PollInterval is how often open views refetch from the service.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// TUIConfig contains terminal UI settings.
type TUIConfig struct {
	// Theme selects the colour palette (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	dataDir := "~/.local/share/coachdesk"
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dataDir = filepath.Join(xdg, "coachdesk")
	}

	return &Config{
		Global: GlobalConfig{
			DataDir: dataDir,
			Role:    "coach",
		},
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Chat: ChatConfig{
			PageSize:     20,
			PollInterval: 5 * time.Second,
		},
		TUI: TUIConfig{
			Theme: "default",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Global.Role {
	case "coach", "client":
	default:
		return fmt.Errorf("global.role must be coach or client, got %q", c.Global.Role)
	}
	if c.Chat.PageSize <= 0 {
		return fmt.Errorf("chat.page_size must be positive")
	}
	if c.Chat.PollInterval <= 0 {
		return fmt.Errorf("chat.poll_interval must be positive")
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("logging.level %q is not valid", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// OutboxPath returns the path of the local outbox database.
func (c *Config) OutboxPath() string {
	return filepath.Join(c.Global.DataDir, "outbox.db")
}
