package cmd

import (
	"github.com/spf13/cobra"

	"github.com/almuerzo-cl/almuerzo/backend/internal/database"
	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/seed"
	"github.com/almuerzo-cl/almuerzo/backend/internal/server"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load restaurants, menus and accounts from a YAML file",
	Long: `Load restaurants, menus and accounts from a YAML file.

Without --file the bundled Santiago sample data is used. Existing accounts and
restaurants are skipped, and every menu item is re-embedded afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		f, err := seed.Default()
		if seedFile != "" {
			f, err = seed.Load(seedFile)
		}
		if err != nil {
			return err
		}

		db, err := database.New(cfg, log)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		embedder, _ := server.AIFromConfig(cmd.Context(), cfg, log)
		origin := geo.Point{Lat: cfg.DefaultLat, Lon: cfg.DefaultLon}
		catalog := service.NewCatalogService(db, embedder, origin, cfg.DistanceLimitKm, cfg.Location(), log)
		auth := service.NewAuthService(db, cfg.JWTSecret)

		_, err = seed.New(db, auth, catalog, log).Run(cmd.Context(), f)
		return err
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed YAML file")
}
