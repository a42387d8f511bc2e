package main

import (
	"log/slog"

	"github.com/couchcryptid/pizzeria-traffic/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "pizzeria-traffic",
		Short:         "Log live versus usual Google Maps traffic for a set of pizzerias.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if err := godotenv.Load(envFile); err != nil {
				slog.Debug("no env file loaded", "path", envFile, "error", err)
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional file of KEY=VALUE pairs loaded before reading the environment.")

	root.AddCommand(newRunCmd(), newInitDBCmd(), newMigrateCmd(), newTargetsCmd())
	return root
}

// loadConfig reads the environment and installs the configured default logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat), nil
}
