package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/normalize"
	"github.com/gyeh/rafscore/internal/parquetio"
	embedsql "github.com/gyeh/rafscore/internal/sql"
)

// PreflightResult holds what was resolved before scoring starts.
type PreflightResult struct {
	InputPath   string
	InputSHA256 string
	InputSize   int64
	// RunID identifies the run in raf.score_runs. A re-run of the same input
	// and model reuses the existing id.
	RunID   uuid.UUID
	NumRows int64
	// AlreadyScored is set when the input was scored under this model before
	// and force is off.
	AlreadyScored bool
}

// Preflight hashes and validates the input file and registers the run.
func Preflight(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, path string, m model.ModelName, force bool) (*PreflightResult, error) {
	start := time.Now()

	sha, err := normalize.FileHash(path)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("preflight stat: %w", err)
	}

	reader, err := parquetio.Open[model.BeneficiaryRow](path)
	if err != nil {
		return nil, fmt.Errorf("preflight open: %w", err)
	}
	defer reader.Close()
	if err := parquetio.ValidateSchema(reader.Schema(), parquetio.BeneficiaryColumns...); err != nil {
		return nil, fmt.Errorf("preflight validate: %w", err)
	}
	numRows := reader.NumRows()

	log.Info().
		Str("file", filepath.Base(path)).
		Str("sha256", sha).
		Int64("rows", numRows).
		Str("model", string(m)).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")

	runID, already, err := registerRun(ctx, pool, path, sha, m, force)
	if err != nil {
		return nil, fmt.Errorf("preflight register run: %w", err)
	}

	return &PreflightResult{
		InputPath:     path,
		InputSHA256:   sha,
		InputSize:     stat.Size(),
		RunID:         runID,
		NumRows:       numRows,
		AlreadyScored: already,
	}, nil
}

func registerRun(ctx context.Context, pool *pgxpool.Pool, path, sha string, m model.ModelName, force bool) (uuid.UUID, bool, error) {
	var runID uuid.UUID
	err := pool.QueryRow(ctx, embedsql.RegisterRun, uuid.New(), string(m), path, sha).Scan(&runID)
	if err == nil {
		return runID, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, fmt.Errorf("register run: %w", err)
	}

	// Same input and model already registered.
	var status string
	if err := pool.QueryRow(ctx, embedsql.LookupRun, sha, string(m)).Scan(&runID, &status); err != nil {
		return uuid.Nil, false, fmt.Errorf("lookup existing run: %w", err)
	}
	if !force && status == "scored" {
		return runID, true, nil
	}
	if _, err := pool.Exec(ctx, embedsql.DeleteRunScores, runID); err != nil {
		return uuid.Nil, false, fmt.Errorf("clear previous scores: %w", err)
	}
	if err := UpdateStatus(ctx, pool, runID, "pending"); err != nil {
		return uuid.Nil, false, fmt.Errorf("reset run status: %w", err)
	}
	return runID, false, nil
}
