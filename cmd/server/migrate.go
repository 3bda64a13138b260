package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"browser-sync/internal/config"
	"browser-sync/internal/repository/sqlstore"
)

func newMigrateCommand(logger *logrus.Logger, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withMigrator := func(fn func(*sqlstore.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			db, err := sqlstore.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			mg, err := sqlstore.NewMigrator(db)
			if err != nil {
				return err
			}
			return fn(mg)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withMigrator(func(mg *sqlstore.Migrator) error {
				if err := mg.Up(); err != nil {
					return err
				}
				logger.Info("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			RunE: withMigrator(func(mg *sqlstore.Migrator) error {
				if err := mg.Down(); err != nil {
					return err
				}
				logger.Warn("all migrations rolled back")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			RunE: withMigrator(func(mg *sqlstore.Migrator) error {
				version, dirty, err := mg.Version()
				if err != nil {
					return err
				}
				logger.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema version")
				return nil
			}),
		},
	)
	return cmd
}
