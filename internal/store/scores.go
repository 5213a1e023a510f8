package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/rafscore/internal/model"
	embedsql "github.com/gyeh/rafscore/internal/sql"
)

// Scores returns the persisted rows of a run ordered by beneficiary.
func Scores(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID) ([]model.ScoreRow, error) {
	rows, err := pool.Query(ctx, embedsql.SelectRunScores, runID)
	if err != nil {
		return nil, fmt.Errorf("select run scores: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ScoreRow, error) {
		var s model.ScoreRow
		err := row.Scan(&s.RunID, &s.BeneficiaryID, &s.ModelName, &s.Category, &s.RiskScore,
			&s.RiskScoreDemographics, &s.RiskScoreChronicOnly, &s.RiskScoreHCC,
			&s.HCCList, &s.Coefficients, &s.ScoredAt)
		return s, err
	})
}
