package main

import (
	"github.com/deppfellow/openwork/internal/config"
	"github.com/deppfellow/openwork/internal/database"
	"github.com/deppfellow/openwork/internal/logger"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			log := logger.NewLoggerWithService(cfg.Observability, nil)
			return database.Migrate(cmd.Context(), &log, cfg)
		},
	}
}
