package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/josh-kwaku/clinic-billing/internal/config"
	"github.com/josh-kwaku/clinic-billing/internal/logging"
	"github.com/josh-kwaku/clinic-billing/internal/repository"
)

var version = "1.0.0"

// session holds what every subcommand needs once the root pre-run has connected.
type session struct {
	cfg      *config.DatabaseConfig
	db       *sql.DB
	location *time.Location
	logger   *slog.Logger
}

var current session

var rootCmd = &cobra.Command{
	Use:   "billingctl",
	Short: "Operator tooling for the clinic billing ledger",
	Long: `billingctl runs schema migrations, catalog maintenance and ledger reports
directly against the billing database.

Required environment variables:
  DATABASE_URL - PostgreSQL connection string

Optional:
  TIMEZONE  - zone used for calendar-day report boundaries (default Asia/Tashkent)
  LOG_LEVEL - debug, info, warn or error (default info)`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: connect,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current.db != nil {
			current.db.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func connect(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read .env: %w", err)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	// Logs go to stderr so report output on stdout stays machine readable.
	logger := logging.New(os.Stderr, "billingctl", cfg.LogLevel, cfg.AppEnv)
	slog.SetDefault(logger)

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		PingAttempts: 3,
	})
	if err != nil {
		return err
	}

	current = session{cfg: cfg, db: db, location: location, logger: logger}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
