package main

import (
	"github.com/spf13/cobra"

	"github.com/EgorLis/asset-catalog/internal/app"
	"github.com/EgorLis/asset-catalog/internal/config"
	"github.com/EgorLis/asset-catalog/internal/infra/database/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply embedded PostgreSQL migrations",
	Long: `Apply the embedded schema migrations to the database configured by DB_*.
With DB_DRIVER=gorm the schema is created by AutoMigrate on start, so the command is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}
		logger := app.NewLogger("migrate")
		if cfg.DBDriver != config.DriverPGX {
			logger.Printf("DB_DRIVER=%s: nothing to migrate", cfg.DBDriver)
			return nil
		}
		return postgres.RunMigrations(cfg.GetDSN(), logger)
	},
}
