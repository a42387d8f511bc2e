package main

import (
	"github.com/couchcryptid/pizzeria-traffic/internal/adapter/store"
	"github.com/spf13/cobra"
)

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Drop and recreate the traffic_logs table. Every stored row is lost.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := store.Open(cmd.Context(), store.Backend(cfg.DBBackend), cfg.DBDSN)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Reset(cmd.Context()); err != nil {
				return err
			}
			logger.Info("traffic_logs recreated", "backend", cfg.DBBackend)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "migrate [--version N]",
		Short: "Apply the embedded schema migrations.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := store.Open(cmd.Context(), store.Backend(cfg.DBBackend), cfg.DBDSN)
			if err != nil {
				return err
			}
			defer s.Close()

			return s.Migrate(cmd.Context(), version, logger)
		},
	}
	cmd.Flags().IntVar(&version, "version", -1, "Target schema version: -1 for latest, 0 to roll everything back.")
	return cmd
}
