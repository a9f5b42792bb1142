package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/almuerzo-cl/almuerzo/backend/internal/database"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema, then apply the SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		if migrationsDir == "" {
			migrationsDir = cfg.MigrationsDir
		}

		db, err := database.New(cfg, log)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}

		raw, err := database.OpenSQL(cfg)
		if err != nil {
			return err
		}
		defer raw.Close()

		applied, err := database.RunMigrations(cmd.Context(), raw, migrationsDir, log)
		if err != nil {
			return err
		}
		log.Info("Migrations complete", zap.Int("applied", len(applied)))
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "", "directory of *.sql migrations (default MIGRATIONS_DIR)")
}
