// Package api exposes the engine's query surface over HTTP: confidence
// lookups, site allow-lists and the cleanup operations, plus the metrics
// and health endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/birdstation/ebird-engine/internal/allowlist"
	"github.com/birdstation/ebird-engine/internal/cleanup"
	"github.com/birdstation/ebird-engine/internal/conf"
	"github.com/birdstation/ebird-engine/internal/confidence"
	"github.com/birdstation/ebird-engine/internal/logging"
	"github.com/birdstation/ebird-engine/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP server for the regional confidence engine.
type Server struct {
	echo     *echo.Echo
	settings *conf.Settings

	resolver *confidence.Resolver
	builder  *allowlist.Builder
	operator *cleanup.Operator
	metrics  *observability.Metrics

	slogger   *slog.Logger
	levelVar  *slog.LevelVar
	logCloser func() error
}

// ServerOption configures optional Server collaborators.
type ServerOption func(*Server)

// WithMetrics attaches the metrics registry; its handler is mounted at /metrics.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates the engine HTTP server and registers all routes.
func New(settings *conf.Settings, resolver *confidence.Resolver, builder *allowlist.Builder, operator *cleanup.Operator, opts ...ServerOption) *Server {
	s := &Server{
		settings: settings,
		resolver: resolver,
		builder:  builder,
		operator: operator,
		levelVar: new(slog.LevelVar),
	}
	s.levelVar.Set(slog.LevelInfo)

	var err error
	logFilePath := filepath.Join("logs", "api.log")
	s.slogger, s.logCloser, err = logging.NewFileLogger(logFilePath, "api", s.levelVar)
	if err != nil {
		log.Printf("Failed to initialize api file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: s.levelVar})
		s.slogger = slog.New(fbHandler).With("service", "api")
		s.logCloser = func() error { return nil }
	}

	for _, opt := range opts {
		opt(s)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(echomw.Recover())
	s.echo.Use(echomw.RequestID())

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.echo.Group("/api/v1")
	v1.GET("/confidence", s.handleConfidence)
	v1.GET("/allowed", s.handleAllowedSpecies)
	v1.POST("/cleanup/preview", s.handleCleanupPreview)
	v1.POST("/cleanup/execute", s.handleCleanupExecute)

	s.echo.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// Start serves on addr until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.slogger.Info("api server started", "addr", addr)

	select {
	case err := <-errChan:
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.echo.Shutdown(shutdownCtx)
	s.slogger.Info("api server stopped")
	if s.logCloser != nil {
		if closeErr := s.logCloser(); closeErr != nil {
			log.Printf("Failed to close api log file: %v", closeErr)
		}
	}
	return err
}
