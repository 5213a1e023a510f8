// Package server exposes the calculator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/raf"
	"github.com/gyeh/rafscore/internal/refdata"
)

// Server routes scoring requests to one calculator per supported model.
type Server struct {
	echo        *echo.Echo
	log         zerolog.Logger
	calcs       map[model.ModelName]*raf.Calculator
	defaultCalc *raf.Calculator
	tables      string
}

// New builds a calculator for every model over rd. opts.Model is the
// default for requests that do not name one.
func New(rd *refdata.ReferenceData, opts raf.Options, log zerolog.Logger) (*Server, error) {
	s := &Server{
		log:    log,
		calcs:  make(map[model.ModelName]*raf.Calculator, len(model.AllModels)),
		tables: rd.Summary(),
	}
	for _, info := range model.AllModels {
		o := opts
		o.Model = info.Name
		c, err := raf.New(rd, o)
		if err != nil {
			return nil, fmt.Errorf("calculator for %s: %w", info.Name, err)
		}
		s.calcs[info.Name] = c
	}
	def := opts.Model
	if def == "" {
		def = model.DefaultModel
	}
	var ok bool
	if s.defaultCalc, ok = s.calcs[def]; !ok {
		return nil, fmt.Errorf("unknown default model %q", def)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(Recovery(log))
	e.Use(RequestID())
	e.Use(Logger(log))

	e.GET("/healthz", s.health)
	v1 := e.Group("/api/v1")
	v1.GET("/models", s.models)
	s.registerRAFRoutes(v1.Group("/raf"))
	s.echo = e
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("starting server")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info().Msg("server stopped")
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":        "ok",
		"default_model": string(s.defaultCalc.Model()),
		"tables":        s.tables,
	})
}

func (s *Server) models(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"models":  model.ModelNames(),
		"default": s.defaultCalc.Model(),
	})
}

func (s *Server) calculator(name string) (*raf.Calculator, error) {
	if name == "" {
		return s.defaultCalc, nil
	}
	c, ok := s.calcs[model.ModelName(name)]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown model_name %q", name))
	}
	return c, nil
}
