package store_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/rafscore/internal/db"
	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/parquetio"
	"github.com/gyeh/rafscore/internal/raf"
	"github.com/gyeh/rafscore/internal/refdata"
	"github.com/gyeh/rafscore/internal/store"
)

const (
	testPort     = 15433
	testDB       = "raftest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var testDSN string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stderr, "SKIP: store integration tests start embedded postgres")
		os.Exit(0)
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)
	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
	os.Exit(code)
}

// setupDB connects, drops the raf schema and re-applies migrations.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS raf CASCADE"); err != nil {
		t.Fatalf("drop schema: %v", err)
	}
	if err := db.ApplyMigrations(ctx, pool, zerolog.Nop()); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func calculator(t *testing.T) *raf.Calculator {
	t.Helper()
	m := model.CMSHCCV24
	rd := refdata.New()
	rd.DxToCC[refdata.Key{Code: "E119", Model: m}] = []string{"19"}
	rd.DxToCC[refdata.Key{Code: "I5020", Model: m}] = []string{"85"}
	rd.Coefficients[refdata.Key{Code: "cna_f70_74", Model: m}] = 0.396
	rd.Coefficients[refdata.Key{Code: "cna_m80_84", Model: m}] = 0.617
	rd.Coefficients[refdata.Key{Code: "cna_hcc19", Model: m}] = 0.105
	rd.Coefficients[refdata.Key{Code: "cna_hcc85", Model: m}] = 0.331
	rd.Coefficients[refdata.Key{Code: "cna_diabetes_chf", Model: m}] = 0.121
	c, err := raf.New(rd, raf.Options{Model: m, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("raf.New: %v", err)
	}
	return c
}

// beneficiaryFixture writes three beneficiaries; the last has an invalid sex code.
func beneficiaryFixture(t *testing.T) string {
	t.Helper()
	orec := "0"
	rows := []model.BeneficiaryRow{
		{BeneficiaryID: "B001", Age: 72, Sex: "F", OREC: &orec, DiagnosisCodes: []string{"E11.9", "I50.20"}},
		{BeneficiaryID: "B002", Age: 81, Sex: "M", OREC: &orec, DiagnosisCodes: []string{}},
		{BeneficiaryID: "B003", Age: 70, Sex: "X", OREC: &orec, DiagnosisCodes: []string{"E119"}},
	}
	path := filepath.Join(t.TempDir(), "beneficiaries.parquet")
	if err := parquetio.WriteAll(path, rows); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func countScores(t *testing.T, pool *pgxpool.Pool, runID string) int64 {
	t.Helper()
	var n int64
	if err := pool.QueryRow(context.Background(), "SELECT count(*) FROM raf.scores WHERE run_id = $1", uuid.MustParse(runID)).Scan(&n); err != nil {
		t.Fatalf("count scores: %v", err)
	}
	return n
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	pool := setupDB(t)
	if err := db.ApplyMigrations(context.Background(), pool, zerolog.Nop()); err != nil {
		t.Fatalf("second ApplyMigrations: %v", err)
	}
}

func TestRunScoresAndPersists(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	input := beneficiaryFixture(t)

	outPath := filepath.Join(t.TempDir(), "scores.parquet")
	out, err := parquetio.Create[model.ScoreRow](outPath)
	if err != nil {
		t.Fatalf("create output: %v", err)
	}
	summary, err := store.Run(ctx, pool, zerolog.Nop(), calculator(t), store.Options{InputPath: input, Output: out})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close output: %v", err)
	}

	if summary.RowsRead != 3 || summary.RowsScored != 2 || summary.RowsSkipped != 1 || summary.RowsPersisted != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if n := countScores(t, pool, summary.RunID); n != 2 {
		t.Errorf("persisted %d scores, want 2", n)
	}

	var status string
	var scored int64
	err = pool.QueryRow(ctx, "SELECT status, rows_scored FROM raf.score_runs WHERE run_id = $1", uuid.MustParse(summary.RunID)).Scan(&status, &scored)
	if err != nil {
		t.Fatalf("lookup run: %v", err)
	}
	if status != "scored" || scored != 2 {
		t.Errorf("run status=%s rows_scored=%d", status, scored)
	}

	got, err := store.Scores(ctx, pool, uuid.MustParse(summary.RunID))
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows", len(got))
	}
	first := got[0]
	if first.BeneficiaryID != "B001" || first.Category != "F70_74" || len(first.HCCList) != 2 {
		t.Errorf("B001 = %+v", first)
	}
	if first.RunID.String() != summary.RunID || first.ModelName != string(model.CMSHCCV24) {
		t.Errorf("B001 run=%s model=%s", first.RunID, first.ModelName)
	}
	want := 0.396 + 0.105 + 0.331 + 0.121
	if diff := first.RiskScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("B001 score = %v, want %v", first.RiskScore, want)
	}
	if second := got[1]; second.BeneficiaryID != "B002" || second.RiskScore != 0.617 || second.RiskScoreHCC != 0 || len(second.HCCList) != 0 {
		t.Errorf("B002 = %+v", second)
	}

	written, err := parquetio.ReadAll[model.ScoreRow](outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(written) != 2 || written[0].BeneficiaryID != "B001" {
		t.Errorf("parquet output = %+v", written)
	}
}

func TestRunSkipsAlreadyScored(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	input := beneficiaryFixture(t)
	calc := calculator(t)

	first, err := store.Run(ctx, pool, zerolog.Nop(), calc, store.Options{InputPath: input})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := store.Run(ctx, pool, zerolog.Nop(), calc, store.Options{InputPath: input})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.RunID != first.RunID || second.RowsScored != 0 {
		t.Errorf("second run should be a no-op, got %+v", second)
	}

	forced, err := store.Run(ctx, pool, zerolog.Nop(), calc, store.Options{InputPath: input, Force: true})
	if err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	if forced.RunID != first.RunID || forced.RowsScored != 2 {
		t.Errorf("forced run = %+v", forced)
	}
	if n := countScores(t, pool, first.RunID); n != 2 {
		t.Errorf("forced re-score left %d rows, want 2", n)
	}
}

func TestRunRejectsWrongSchema(t *testing.T) {
	pool := setupDB(t)
	path := filepath.Join(t.TempDir(), "records.parquet")
	if err := parquetio.WriteAll(path, []model.RecordRow{{ClaimDiagnosisCodes: []string{"E119"}}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := store.Run(context.Background(), pool, zerolog.Nop(), calculator(t), store.Options{InputPath: path})
	var pe *store.PipelineError
	if !errors.As(err, &pe) || pe.Phase != "preflight" {
		t.Fatalf("expected preflight PipelineError, got %v", err)
	}
}

func TestScoreBeneficiariesWithoutDatabase(t *testing.T) {
	input := beneficiaryFixture(t)
	var ids []string
	stats, err := store.ScoreBeneficiaries(context.Background(), zerolog.Nop(), calculator(t), input, uuid.Nil, func(r *model.ScoreRow) error {
		ids = append(ids, r.BeneficiaryID)
		return nil
	})
	if err != nil {
		t.Fatalf("ScoreBeneficiaries: %v", err)
	}
	if stats.RowsRead != 3 || stats.RowsScored != 2 || stats.RowsSkipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(ids) != 2 || ids[0] != "B001" || ids[1] != "B002" {
		t.Errorf("emitted = %v", ids)
	}

	stop := errors.New("stop")
	_, err = store.ScoreBeneficiaries(context.Background(), zerolog.Nop(), calculator(t), input, uuid.Nil, func(*model.ScoreRow) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("emit error not propagated: %v", err)
	}
}
