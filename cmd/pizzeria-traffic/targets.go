package main

import (
	"github.com/couchcryptid/pizzeria-traffic/internal/config"
	"github.com/couchcryptid/pizzeria-traffic/internal/report"
	"github.com/spf13/cobra"
)

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "Validate and list the configured pizzerias without fetching anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := config.LoadTargets(cfg.TargetsFile)
			if err != nil {
				return err
			}
			return report.PrintTargets(cmd.OutOrStdout(), reg)
		},
	}
}
