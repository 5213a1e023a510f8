package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyeh/rafscore/internal/db"
	"github.com/gyeh/rafscore/internal/exitcode"
	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/parquetio"
	"github.com/gyeh/rafscore/internal/store"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score a Parquet file of beneficiaries",
	Long: "Scores every beneficiary in --input. With a DSN the scores are COPY-loaded into raf.scores " +
		"under a registered run; --out additionally (or, without a DSN, only) writes them to Parquet.",
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&cfg.InputPath, "input", "", "Beneficiary Parquet file (required)")
	f.StringVar(&cfg.OutputPath, "out", "", "Score Parquet output file")
	f.BoolVar(&cfg.Force, "force", false, "Re-score even if this input was already scored under the model")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := newLogger()
	if cfg.DSN == "" && cfg.OutputPath == "" {
		err := errors.New("--out is required when no --dsn is configured")
		log.Error().Err(err).Msg("config validation failed")
		return exit(exitcode.UsageError, err)
	}
	_, calc, err := loadCalculator(log)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	var out *parquetio.Writer[model.ScoreRow]
	if cfg.OutputPath != "" {
		if out, err = parquetio.Create[model.ScoreRow](cfg.OutputPath); err != nil {
			log.Error().Err(err).Msg("failed to create output file")
			return exit(exitcode.UsageError, err)
		}
		defer out.Close()
	}

	if cfg.DSN == "" {
		stats, err := store.ScoreBeneficiaries(ctx, log, calc, cfg.InputPath, uuid.New(), func(row *model.ScoreRow) error {
			return out.Write([]model.ScoreRow{*row})
		})
		if err != nil {
			log.Error().Err(err).Msg("batch scoring failed")
			return exit(exitcode.ScoreError, err)
		}
		if err := out.Close(); err != nil {
			return exit(exitcode.ScoreError, err)
		}
		fmt.Printf("Batch complete: %d read, %d scored, %d skipped (%.1fs) -> %s (%d rows)\n",
			stats.RowsRead, stats.RowsScored, stats.RowsSkipped, stats.Duration.Seconds(), cfg.OutputPath, out.Rows())
		if stats.RowsSkipped > 0 {
			return exit(exitcode.PartialSuccess, fmt.Errorf("%d beneficiaries skipped", stats.RowsSkipped))
		}
		return nil
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		return exit(exitcode.DBConnError, err)
	}
	defer pool.Close()

	summary, err := store.Run(ctx, pool, log, calc, store.Options{InputPath: cfg.InputPath, Force: cfg.Force, Output: out})
	if err != nil {
		var pe *store.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("batch failed")
			switch pe.Phase {
			case "preflight":
				return exit(exitcode.ValidationError, err)
			case "score":
				return exit(exitcode.CopyError, err)
			}
		}
		log.Error().Err(err).Msg("batch failed")
		return exit(exitcode.ScoreError, err)
	}
	if out != nil {
		if err := out.Close(); err != nil {
			return exit(exitcode.ScoreError, err)
		}
	}

	fmt.Printf("Batch complete: run %s, %d scored, %d skipped, %d persisted (%.1fs)\n",
		summary.RunID, summary.RowsScored, summary.RowsSkipped, summary.RowsPersisted, summary.DurationTotal.Seconds())
	if summary.RowsSkipped > 0 {
		return exit(exitcode.PartialSuccess, fmt.Errorf("%d beneficiaries skipped", summary.RowsSkipped))
	}
	return nil
}
