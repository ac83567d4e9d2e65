package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/clinic-billing/internal/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the billing schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := migration.Up(current.db); err != nil {
			return err
		}
		return reportVersion(cmd)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Example: `  # Roll back the most recent migration
  billingctl migrate down

  # Roll back three migrations
  billingctl migrate down --steps 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if err := migration.Down(current.db, steps); err != nil {
			return err
		}
		return reportVersion(cmd)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportVersion(cmd)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)

	migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
}

func reportVersion(cmd *cobra.Command) error {
	v, dirty, err := migration.Version(current.db)
	if err != nil {
		return err
	}
	current.logger.Info("schema version", "version", v, "dirty", dirty)
	fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
	return nil
}
