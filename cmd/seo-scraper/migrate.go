package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flavioespinoza/seo-scraper/db"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the report database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				database, err := openDB(v)
				if err != nil {
					return err
				}
				defer database.Close()
				fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				database, err := openDB(v)
				if err != nil {
					return err
				}
				defer database.Close()
				if err := db.Rollback(database.DB(), database.Driver()); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rolled back one migration")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				database, err := openDB(v)
				if err != nil {
					return err
				}
				defer database.Close()

				status, err := db.GetMigrationStatus(database.DB())
				if err != nil {
					return err
				}
				for _, s := range status {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-30s  %s\n", s.Version, s.Name, state)
				}
				return nil
			},
		},
	)

	return cmd
}

// openDB opens the configured database, which applies pending migrations
func openDB(v *viper.Viper) (*db.DB, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	database, err := db.New(cfg.dbConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return database, nil
}
