// Package main is the entry point for the content studio API server.
//
// main stays small: load configuration, build the logger, hand both to
// server.New, and block in Start until a shutdown signal arrives. Everything
// else lives in internal/.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sakif/content-studio/internal/config"
	"github.com/sakif/content-studio/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// CONFIG_FILE is optional; without it, defaults + .env + environment apply.
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		// No configured logger yet; fall back to a plain one.
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	// === 3. WIRE AND RUN ===
	srv, err := server.New(context.Background(), *cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger builds a text or JSON slog logger at the configured level.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
