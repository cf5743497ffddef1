package main

import (
	"expense-ingest/pkg/config"
	"expense-ingest/pkg/logger"
	"expense-ingest/pkg/postgres"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
				return err
			}
			defer logger.Sync()

			return postgres.Migrate(cmd.Context(), &cfg.Database, args[0], logger.Named("migrate"))
		},
	}
}
