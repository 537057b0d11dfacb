package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scidsg/hushline/internal/db"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the database schema",
	Long: `Create and/or upgrade the database schema.

Applies every pending embedded migration. With --status the applied state
of each migration is printed instead.

Example:
  hushline-admin migrate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadDatabaseConfig()
		if err != nil {
			return err
		}
		if migrateStatus {
			return db.MigrationStatus(cfg.DatabaseURL)
		}
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Print migration status instead of migrating")
	rootCmd.AddCommand(migrateCmd)
}
