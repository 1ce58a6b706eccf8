package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"civictrack/internal/db"
	"civictrack/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		database, err := openMigrated(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		logger.Info("schema up to date", nil)
		return nil
	},
}

func openMigrated(ctx context.Context) (*db.DB, error) {
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}
	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database.DB); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}
