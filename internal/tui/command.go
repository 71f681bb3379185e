package tui

import (
	"github.com/spf13/cobra"

	"github.com/chatline-im/chatline/internal/config"
)

// Execute runs the chatline TUI command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	var (
		configFile string
		serverURL  string
		token      string
		theme      string
	)

	cmd := &cobra.Command{
		Use:           "chatline",
		Short:         "chatline terminal chat client",
		Long:          "Bubbletea-based terminal client for direct and group chat with live updates.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			if configFile != "" {
				loader.SetConfigFile(configFile)
			}
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			if serverURL != "" {
				cfg.Server.BaseURL = serverURL
			}
			if token != "" {
				cfg.Server.Token = token
			}
			if theme != "" {
				cfg.TUI.Theme = theme
			}
			return Run(cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file path")
	cmd.Flags().StringVar(&serverURL, "server", "", "chat server base URL override")
	cmd.Flags().StringVar(&token, "token", "", "bearer credential override")
	cmd.Flags().StringVar(&theme, "theme", "", "theme: default|high-contrast")
	return cmd
}
