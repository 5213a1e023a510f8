package main

import (
	"github.com/spf13/cobra"

	"github.com/gyeh/rafscore/internal/exitcode"
	"github.com/gyeh/rafscore/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scoring API over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfg.ListenAddr, "listen", ":8080", "HTTP listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	rd, calc, err := loadCalculator(log)
	if err != nil {
		return err
	}
	srv, err := server.New(rd, calcOptions(log), log)
	if err != nil {
		log.Error().Err(err).Msg("server setup failed")
		return exit(exitcode.UsageError, err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	log.Info().Str("default_model", string(calc.Model())).Msg("scoring API ready")
	if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		log.Error().Err(err).Msg("server failed")
		return exit(exitcode.UsageError, err)
	}
	return nil
}
