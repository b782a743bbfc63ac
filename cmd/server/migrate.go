package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurondb/NeuronFlow/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		database, err := db.Open(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("Migrations applied", map[string]interface{}{"flavor": database.Flavor()})
		return nil
	},
}
