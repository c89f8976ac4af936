// Package cli wires configuration, logging and the API client into the
// coachdesk dashboard command.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tOgg1/coachdesk/internal/api"
	"github.com/tOgg1/coachdesk/internal/chatui"
	"github.com/tOgg1/coachdesk/internal/config"
	"github.com/tOgg1/coachdesk/internal/logging"
	"github.com/tOgg1/coachdesk/internal/models"
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "coachdesk",
		Short:         "Terminal dashboard for coaching-platform messaging",
		Long:          "coachdesk is a terminal dashboard for the coaching platform: conversations, chat threads with offline-safe sending, and the notification center.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, configFile)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default: $XDG_CONFIG_HOME/coachdesk/config.yaml)")
	cmd.Flags().String("api", "", "Conversation service base URL")
	cmd.Flags().String("token", "", "Bearer token for the authenticated session")
	cmd.Flags().String("user", "", "Viewer user id")
	cmd.Flags().String("role", "", "Viewer role (coach, client)")
	cmd.Flags().String("theme", "", "Color theme (default, high-contrast)")
	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd(version))

	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the coachdesk version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coachdesk %s\n", version)
		},
	}
}

// flagOverrides maps CLI flags onto viper keys so flags win over config
// file and environment.
var flagOverrides = map[string]string{
	"api":       "api.base_url",
	"token":     "api.token",
	"user":      "global.user_id",
	"role":      "global.role",
	"theme":     "tui.theme",
	"log-level": "logging.level",
}

func runDashboard(cmd *cobra.Command, configFile string) error {
	loader := config.NewLoader()
	if configFile != "" {
		loader.SetConfigFile(configFile)
	}
	for flag, key := range flagOverrides {
		if cmd.Flags().Changed(flag) {
			value, _ := cmd.Flags().GetString(flag)
			loader.Set(key, value)
		}
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if cfg.Global.UserID == "" {
		return fmt.Errorf("user id required (--user or global.user_id)")
	}

	if err := initLogging(cfg); err != nil {
		return err
	}

	client, err := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		return err
	}

	return chatui.Run(chatui.Config{
		UserID:       cfg.Global.UserID,
		Role:         models.Role(cfg.Global.Role),
		Theme:        cfg.TUI.Theme,
		PageSize:     cfg.Chat.PageSize,
		PollInterval: cfg.Chat.PollInterval,
		OutboxPath:   cfg.OutboxPath(),
	}, client)
}

// initLogging routes logs to the configured file. With no file configured
// they are discarded: writing to stderr would corrupt the alt-screen TUI.
func initLogging(cfg *config.Config) error {
	var output io.Writer = io.Discard
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		output = file
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       output,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	return nil
}
