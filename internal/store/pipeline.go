// Package store runs batch scoring against a Postgres database: it
// registers each run, streams scores in with COPY and records the outcome.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/parquetio"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Options configures a pipeline run.
type Options struct {
	InputPath string
	Force     bool
	// Output, when set, also receives every score row.
	Output *parquetio.Writer[model.ScoreRow]
}

// Run executes preflight, scoring with COPY and finalize. A failed scoring
// phase removes whatever rows it had copied.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, s Scorer, opts Options) (*model.RunSummary, error) {
	totalStart := time.Now()

	log.Info().Str("file", opts.InputPath).Msg("starting preflight")
	pf, err := Preflight(ctx, pool, log, opts.InputPath, s.Model(), opts.Force)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}
	summary := &model.RunSummary{
		RunID:       pf.RunID.String(),
		ModelName:   string(s.Model()),
		InputPath:   pf.InputPath,
		InputSHA256: pf.InputSHA256,
	}
	if pf.AlreadyScored {
		log.Info().
			Str("run_id", pf.RunID.String()).
			Str("sha256", pf.InputSHA256).
			Msg("input already scored under this model, skipping (use --force to re-score)")
		summary.DurationTotal = time.Since(totalStart)
		return summary, nil
	}

	log.Info().Msg("starting scoring")
	if err := UpdateStatus(ctx, pool, pf.RunID, "scoring"); err != nil {
		return nil, &PipelineError{Phase: "score", Err: err}
	}
	stats, err := Stage(ctx, pool, log, s, pf, opts.Output)
	if err != nil {
		_ = UpdateStatus(ctx, pool, pf.RunID, "failed")
		if cerr := Cleanup(ctx, pool, log, pf.RunID); cerr != nil {
			log.Warn().Err(cerr).Msg("failed run cleanup failed (non-fatal)")
		}
		return nil, &PipelineError{Phase: "score", Err: err}
	}

	log.Info().Msg("finalizing")
	finalizeDur, err := Finalize(ctx, pool, log, pf, stats)
	if err != nil {
		_ = UpdateStatus(ctx, pool, pf.RunID, "failed")
		return nil, &PipelineError{Phase: "finalize", Err: err}
	}

	summary.RowsRead = stats.RowsRead
	summary.RowsScored = stats.RowsScored
	summary.RowsSkipped = stats.RowsSkipped
	summary.RowsPersisted = stats.RowsCopied
	summary.DurationScore = stats.Duration
	summary.DurationPersist = finalizeDur
	summary.DurationTotal = time.Since(totalStart)

	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_scored", summary.RowsScored).
		Int64("rows_skipped", summary.RowsSkipped).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("score pipeline complete")
	return summary, nil
}
