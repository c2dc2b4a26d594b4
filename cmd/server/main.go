// Package main is the entry point for the college tracker API.
//
// main stays minimal: load configuration, build the logger, hand both to
// internal/server and block until shutdown. Everything else lives in
// internal packages.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/college-tracker/internal/config"
	"github.com/sakif/college-tracker/internal/server"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file; real environment variables win")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Startup (store connect, index creation, seeding) gets its own deadline;
	// the request contexts take over once the server is up.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := server.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger returns a text logger for development and a JSON logger when
// LOG_FORMAT=json.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
