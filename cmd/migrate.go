package main

import (
	"github.com/spf13/cobra"

	"gitlab.com/codemark.net/internal/adapter/postgres"
	logger2 "gitlab.com/codemark.net/internal/global/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sysCfg := loadConfig()
		db, err := postgres.Connect(cmd.Context(), sysCfg.PostgresConfig.Url)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		logger2.Info("Schema applied")
		return nil
	},
}
