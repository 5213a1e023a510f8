package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gyeh/rafscore/internal/db"
	"github.com/gyeh/rafscore/internal/exitcode"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx, cancel := signalContext()
	defer cancel()

	if cfg.DSN == "" {
		err := errors.New("--dsn or DATABASE_URL is required")
		log.Error().Err(err).Msg("config validation failed")
		return exit(exitcode.UsageError, err)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		return exit(exitcode.DBConnError, err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		return exit(exitcode.ScoreError, err)
	}

	log.Info().Msg("all migrations applied successfully")
	return nil
}
