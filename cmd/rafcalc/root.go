package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/rafscore/internal/config"
	"github.com/gyeh/rafscore/internal/exitcode"
	"github.com/gyeh/rafscore/internal/extract"
	"github.com/gyeh/rafscore/internal/hcc"
	"github.com/gyeh/rafscore/internal/logging"
	"github.com/gyeh/rafscore/internal/raf"
	"github.com/gyeh/rafscore/internal/refdata"
)

var (
	cfg        config.Config
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "rafcalc",
	Short: "HCC risk adjustment factor calculator",
	Long: "Scores Medicare beneficiaries under the CMS-HCC, ESRD and RxHCC models from diagnosis codes, " +
		"FHIR ExplanationOfBenefit resources or X12 837 claims.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file (flags override its values)")
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&cfg.Model, "model", "", "Model name (default \"CMS-HCC Model V28\")")
	pf.StringVar(&cfg.Tables.DxToCC, "dx-to-cc", "", "Diagnosis to category mapping CSV")
	pf.StringVar(&cfg.Tables.Hierarchies, "hierarchies", "", "Category hierarchy CSV")
	pf.StringVar(&cfg.Tables.Coefficients, "coefficients", "", "Coefficient CSV")
	pf.StringVar(&cfg.Tables.Chronic, "chronic", "", "Chronic category flag CSV")
	pf.StringVar(&cfg.Tables.EligibleProcedures, "eligible-procedures", "", "Risk-adjustment eligible CPT/HCPCS CSV")
	pf.BoolVar(&cfg.FilterClaims, "filter-claims", false, "Drop claims that fail the eligibility filter")
	pf.StringSliceVar(&cfg.InpatientTOB, "inpatient-tob", nil, "Inpatient type-of-bill codes (default 11X,41X)")
	pf.StringSliceVar(&cfg.OutpatientTOB, "outpatient-tob", nil, "Outpatient type-of-bill codes (default 12X,13X,43X,71X,73X,76X,77X,85X)")
	pf.IntVar(&cfg.Workers, "workers", 0, "Concurrent claim document parsers (0 = GOMAXPROCS)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitcode.UsageError)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		return nil
	}
	if err := cfg.LoadFromFile(configFile, cmd.Flags().Changed); err != nil {
		return err
	}
	return nil
}

// exitError carries the process exit code for a failure that has already
// been logged.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exit(code int, err error) error { return &exitError{code: code, err: err} }

func newLogger() zerolog.Logger {
	return logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
}

// loadCalculator validates the config, loads the reference tables and builds
// a calculator for the configured model.
func loadCalculator(log zerolog.Logger) (*refdata.ReferenceData, *raf.Calculator, error) {
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		return nil, nil, exit(exitcode.UsageError, err)
	}
	rd, stats, err := refdata.Load(cfg.Paths())
	if err != nil {
		log.Error().Err(err).Msg("failed to load reference tables")
		return nil, nil, exit(exitcode.ValidationError, err)
	}
	for table, s := range stats {
		log.Debug().Str("table", table).Int("rows", s.Rows).Int("skipped", s.Skipped).Msg("reference table loaded")
	}
	calc, err := raf.New(rd, calcOptions(log))
	if err != nil {
		log.Error().Err(err).Msg("invalid model")
		return nil, nil, exit(exitcode.UsageError, err)
	}
	log.Info().Str("model", string(calc.Model())).Str("tables", rd.Summary()).Msg("calculator ready")
	return rd, calc, nil
}

func calcOptions(log zerolog.Logger) raf.Options {
	return raf.Options{
		Model:         cfg.ModelName(),
		FilterClaims:  cfg.FilterClaims,
		InpatientTOB:  cfg.InpatientTOB,
		OutpatientTOB: cfg.OutpatientTOB,
		Workers:       cfg.Workers,
		Logger:        log,
	}
}

// scoreExit maps a calculation error to an exit code.
func scoreExit(log zerolog.Logger, err error) error {
	log.Error().Err(err).Msg("scoring failed")
	if isInputError(err) {
		return exit(exitcode.ValidationError, err)
	}
	return exit(exitcode.ScoreError, err)
}

func isInputError(err error) bool {
	var (
		ierr *raf.InputError
		herr *hcc.ValidationError
		xerr *extract.ValidationError
	)
	return errors.As(err, &ierr) || errors.As(err, &herr) || errors.As(err, &xerr)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
