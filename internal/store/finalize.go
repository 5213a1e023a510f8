package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/rafscore/internal/sql"
)

// Finalize records the run counts, marks it scored and refreshes planner stats.
func Finalize(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, pf *PreflightResult, stats *ScoreStats) (time.Duration, error) {
	start := time.Now()

	if _, err := pool.Exec(ctx, embedsql.FinishRun, pf.RunID, stats.RowsRead, stats.RowsScored, stats.RowsSkipped); err != nil {
		return 0, fmt.Errorf("finish run: %w", err)
	}
	log.Info().Str("run_id", pf.RunID.String()).Msg("run marked scored")

	if _, err := pool.Exec(ctx, embedsql.AnalyzeScores); err != nil {
		return 0, fmt.Errorf("analyze scores: %w", err)
	}
	log.Info().Msg("ANALYZE complete")

	return time.Since(start), nil
}
