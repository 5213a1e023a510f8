package main

import (
	"errors"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyeh/rafscore/internal/db"
	"github.com/gyeh/rafscore/internal/exitcode"
	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/parquetio"
	"github.com/gyeh/rafscore/internal/store"
)

var scoresRunID string

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Export the persisted scores of a batch run",
	Long:  "Reads raf.scores for --run and prints them as JSON, or writes them to Parquet with --out.",
	RunE:  runScores,
}

func init() {
	f := scoresCmd.Flags()
	f.StringVar(&scoresRunID, "run", "", "Run ID printed by \"rafcalc batch\" (required)")
	f.StringVar(&cfg.OutputPath, "out", "", "Score Parquet output file")
	_ = scoresCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(scoresCmd)
}

func runScores(cmd *cobra.Command, args []string) error {
	log := newLogger()
	runID, err := uuid.Parse(scoresRunID)
	if err != nil {
		log.Error().Err(err).Msg("invalid run id")
		return exit(exitcode.UsageError, err)
	}
	if cfg.DSN == "" {
		err := errors.New("--dsn or DATABASE_URL is required")
		log.Error().Err(err).Msg("config validation failed")
		return exit(exitcode.UsageError, err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		return exit(exitcode.DBConnError, err)
	}
	defer pool.Close()

	rows, err := store.Scores(ctx, pool, runID)
	if err != nil {
		log.Error().Err(err).Msg("failed to read scores")
		return exit(exitcode.DBConnError, err)
	}
	log.Info().Str("run_id", runID.String()).Int("rows", len(rows)).Msg("scores loaded")
	if cfg.OutputPath != "" {
		if err := parquetio.WriteAll[model.ScoreRow](cfg.OutputPath, rows); err != nil {
			log.Error().Err(err).Msg("failed to write scores")
			return exit(exitcode.ScoreError, err)
		}
		return nil
	}
	return printJSON(rows)
}
