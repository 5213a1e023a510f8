package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/rafscore/internal/db"
	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/parquetio"
	embedsql "github.com/gyeh/rafscore/internal/sql"
)

const readBatchSize = 1024

// Scorer computes a result from diagnosis codes and demographics.
// *raf.Calculator satisfies it.
type Scorer interface {
	Calculate(codes []string, in model.DemographicsInput, records []model.ServiceLevelRecord) (*model.RAFResult, error)
	Model() model.ModelName
}

// ScoreStats counts beneficiaries read, scored and skipped.
type ScoreStats struct {
	RowsRead    int64
	RowsScored  int64
	RowsSkipped int64
	RowsCopied  int64
	Duration    time.Duration
}

// ScoreBeneficiaries streams the beneficiary file through the scorer and
// hands each row to emit. Beneficiaries whose demographics are invalid are
// skipped with a warning; an emit error stops the run.
func ScoreBeneficiaries(ctx context.Context, log zerolog.Logger, s Scorer, path string, runID uuid.UUID, emit func(*model.ScoreRow) error) (*ScoreStats, error) {
	start := time.Now()
	reader, err := parquetio.Open[model.BeneficiaryRow](path)
	if err != nil {
		return nil, fmt.Errorf("score open: %w", err)
	}
	defer reader.Close()

	stats := &ScoreStats{}
	buf := make([]model.BeneficiaryRow, readBatchSize)
	for {
		n, readErr := reader.Read(buf)
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			stats.RowsRead++
			b := &buf[i]

			res, err := s.Calculate(b.DiagnosisCodes, b.Input(), nil)
			if err != nil {
				stats.RowsSkipped++
				log.Warn().Err(err).Str("beneficiary_id", b.BeneficiaryID).Int64("row", stats.RowsRead).Msg("beneficiary skipped")
				continue
			}
			row, err := model.NewScoreRow(runID, b.BeneficiaryID, res, time.Now())
			if err != nil {
				return nil, err
			}
			if err := emit(&row); err != nil {
				return nil, err
			}
			stats.RowsScored++
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read beneficiaries at row %d: %w", stats.RowsRead, readErr)
		}
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// Stage scores the input file and COPY-loads the results into raf.scores
// through a channel-backed CopyFromSource. When out is non-nil every row is
// also written to it.
func Stage(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, s Scorer, pf *PreflightResult, out *parquetio.Writer[model.ScoreRow]) (*ScoreStats, error) {
	start := time.Now()
	ch := make(chan *model.ScoreRow, readBatchSize)
	errCh := make(chan error, 1)
	copyCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stats *ScoreStats
	go func() {
		defer close(ch)
		var err error
		stats, err = ScoreBeneficiaries(copyCtx, log, s, pf.InputPath, pf.RunID, func(row *model.ScoreRow) error {
			if out != nil {
				if err := out.Write([]model.ScoreRow{*row}); err != nil {
					return err
				}
			}
			select {
			case ch <- row:
				return nil
			case <-copyCtx.Done():
				return copyCtx.Err()
			}
		})
		errCh <- err
	}()

	source := db.NewChannelSource(ch)
	copied, copyErr := pool.CopyFrom(copyCtx, pgx.Identifier{"raf", "scores"}, model.ScoreColumns(), source)
	if copyErr != nil {
		log.Warn().Err(copyErr).Int64("rows_sent", source.Consumed()).Msg("copy aborted, draining producer")
		// Unblock the producer if COPY stopped reading.
		cancel()
		for range ch {
		}
	}

	if prodErr := <-errCh; prodErr != nil {
		return nil, fmt.Errorf("score producer: %w", prodErr)
	}
	if copyErr != nil {
		return nil, fmt.Errorf("score copy: %w", copyErr)
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_read", stats.RowsRead).
		Int64("rows_copied", copied).
		Int64("rows_skipped", stats.RowsSkipped).
		Str("duration", dur.String()).
		Float64("rows_per_sec", float64(copied)/dur.Seconds()).
		Msg("scoring complete")
	stats.RowsCopied = copied
	stats.Duration = dur
	return stats, nil
}

// UpdateStatus sets the run status.
func UpdateStatus(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID, status string) error {
	_, err := pool.Exec(ctx, embedsql.UpdateRunStatus, runID, status)
	return err
}
