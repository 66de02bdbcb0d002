// Package main runs the mssql-mcp server: an MCP server on stdio that
// exposes a SQL Server database to agents as the read_query and
// list_tables tools. Logs go to stderr; stdout carries the MCP stream.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/SedlarDavid/mssql-mcp/internal/config"
	"github.com/SedlarDavid/mssql-mcp/internal/db"
	"github.com/SedlarDavid/mssql-mcp/internal/metrics"
	"github.com/SedlarDavid/mssql-mcp/internal/server"
	"github.com/SedlarDavid/mssql-mcp/internal/tools"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run())
}

func run() int {
	bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	logger, closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		bootLogger.Error().Err(err).Msg("logger setup failed")
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, err := db.NewFactory(cfg.Connection)
	if err != nil {
		logger.Error().Err(err).Msg("database configuration")
		return 1
	}

	logger.Info().
		Str("name", cfg.Identity.Name).
		Str("version", cfg.Identity.Version).
		Stringer("connection", cfg.Connection).
		Msg("starting")

	logger.Info().Dur("timeout", cfg.ConnectTimeout).Msg("testing database connection")
	checkCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	err = factory.Check(checkCtx)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("database connection test failed")
		return 1
	}
	logger.Info().Msg("database connection test successful")

	metrics.BuildInfo.WithLabelValues(cfg.Identity.Name, cfg.Identity.Version).Set(1)
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, logger)
	}

	executor := db.NewExecutor(factory, logger)
	dispatcher := tools.NewDispatcher(executor, logger)
	s := server.New(cfg.Identity, dispatcher, logger)

	logger.Info().Msg("serving MCP on stdio")
	if err := server.Serve(ctx, s, os.Stdin, os.Stdout, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server stopped")
		return 1
	}
	logger.Info().Msg("shutdown complete")
	return 0
}
